package models

import (
	"errors"
	"math"
	"time"
)

var (
	ErrBadCheckInID = errors.New("check-in id outside valid range")
	ErrNegativeStat = errors.New("check-in carries a negative stat field")
)

// CheckIn is one normalized upstream check-in event. Identity is ID; the
// upstream assigns positive 32-bit ids, which is what keeps the per-account
// seen-set exact.
type CheckIn struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	TripID      int64     `json:"tripId"`
	Category    string    `json:"category"`
	LineName    string    `json:"lineName"`
	Number      string    `json:"number"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Distance    int64     `json:"distance"` // meters
	Duration    int64     `json:"duration"` // minutes
	Points      int64     `json:"points"`
	Speed       float64   `json:"speed"`
	WasLate     bool      `json:"wasLate"`
	Cancelled   bool      `json:"cancelled"`
}

// Validate reports whether the record is well-formed enough to be merged.
// Malformed records are skipped and counted, never fatal for the batch.
func (c *CheckIn) Validate() error {
	if c.ID <= 0 || c.ID > math.MaxUint32 {
		return ErrBadCheckInID
	}
	if c.Distance < 0 || c.Duration < 0 || c.Points < 0 {
		return ErrNegativeStat
	}
	return nil
}
