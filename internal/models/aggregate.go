package models

import (
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// MergeResult tells the caller what one Merge call did, so the poll loop can
// decide whether another page is worth fetching.
type MergeResult struct {
	Merged     int
	Duplicates int
	Malformed  int
	Watermark  uint32
}

// AllDuplicates reports whether the batch contained nothing new. A non-empty
// batch of only already-seen ids means the poller has caught up.
func (r MergeResult) AllDuplicates() bool {
	return r.Merged == 0 && r.Malformed == 0 && r.Duplicates > 0
}

// AggregateSnapshot is a plain copy of the folded state, safe to hand to the
// render path and to serialize. Maps are owned by the receiver.
type AggregateSnapshot struct {
	CheckinsTotal   int64            `json:"checkins_total"`
	DistanceMeters  int64            `json:"distance_meters"`
	DurationMinutes int64            `json:"duration_minutes"`
	PointsTotal     int64            `json:"points_total"`
	DelayedTotal    int64            `json:"delayed_total"`
	CancelledTotal  int64            `json:"cancelled_total"`
	MalformedTotal  int64            `json:"malformed_total"`
	ByCategory      map[string]int64 `json:"by_category"`
	ByLine          map[string]int64 `json:"by_line"`
	LastCheckInAt   time.Time        `json:"last_checkin_at"`
	LastLine        string           `json:"last_line"`
	Watermark       uint32           `json:"watermark"`
}

// AggregateState folds all check-ins seen so far for one account. Counters
// only grow; the two gauge fields (LastCheckInAt, LastLine) follow the
// newest timestamp instead. The seen bitmap keyed by check-in id is what
// makes re-merging an already-merged batch a no-op.
//
// All methods are safe for concurrent use. Merge holds the write lock for
// the whole batch, so a concurrent Snapshot sees either none or all of a
// record's fields applied.
type AggregateState struct {
	mu   sync.RWMutex
	seen *roaring.Bitmap

	checkinsTotal   int64
	distanceMeters  int64
	durationMinutes int64
	pointsTotal     int64
	delayedTotal    int64
	cancelledTotal  int64
	malformedTotal  int64
	byCategory      map[string]int64
	byLine          map[string]int64
	lastCheckInAt   time.Time
	lastLine        string
	watermark       uint32
}

func NewAggregateState() *AggregateState {
	return &AggregateState{
		seen:       roaring.New(),
		byCategory: make(map[string]int64),
		byLine:     make(map[string]int64),
	}
}

// Merge folds a batch of check-ins into the state. Already-seen ids are
// skipped, malformed records are skipped and counted. Batch order does not
// matter: dedup is by id and the gauges compare timestamps before they are
// overwritten, so an unsorted batch cannot regress the watermark.
func (a *AggregateState) Merge(batch []CheckIn) MergeResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	var res MergeResult
	for i := range batch {
		c := &batch[i]
		if err := c.Validate(); err != nil {
			a.malformedTotal++
			res.Malformed++
			continue
		}
		id := uint32(c.ID)
		if a.seen.Contains(id) {
			res.Duplicates++
			continue
		}
		a.seen.Add(id)
		a.apply(c)
		res.Merged++
	}
	res.Watermark = a.watermark
	return res
}

func (a *AggregateState) apply(c *CheckIn) {
	a.checkinsTotal++
	a.distanceMeters += c.Distance
	a.durationMinutes += c.Duration
	a.pointsTotal += c.Points
	if c.WasLate {
		a.delayedTotal++
	}
	if c.Cancelled {
		a.cancelledTotal++
	}
	if c.Category != "" {
		a.byCategory[c.Category]++
	}
	if c.LineName != "" {
		a.byLine[c.LineName]++
	}
	if id := uint32(c.ID); id > a.watermark {
		a.watermark = id
	}
	if c.CreatedAt.After(a.lastCheckInAt) {
		a.lastCheckInAt = c.CreatedAt
		a.lastLine = c.LineName
	}
}

// Contains reports whether one check-in id was merged before.
func (a *AggregateState) Contains(id int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id <= 0 || id > int64(^uint32(0)) {
		return false
	}
	return a.seen.Contains(uint32(id))
}

// Snapshot returns a consistent copy of the folded state.
func (a *AggregateState) Snapshot() AggregateSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	snap := AggregateSnapshot{
		CheckinsTotal:   a.checkinsTotal,
		DistanceMeters:  a.distanceMeters,
		DurationMinutes: a.durationMinutes,
		PointsTotal:     a.pointsTotal,
		DelayedTotal:    a.delayedTotal,
		CancelledTotal:  a.cancelledTotal,
		MalformedTotal:  a.malformedTotal,
		ByCategory:      make(map[string]int64, len(a.byCategory)),
		ByLine:          make(map[string]int64, len(a.byLine)),
		LastCheckInAt:   a.lastCheckInAt,
		LastLine:        a.lastLine,
		Watermark:       a.watermark,
	}
	for k, v := range a.byCategory {
		snap.ByCategory[k] = v
	}
	for k, v := range a.byLine {
		snap.ByLine[k] = v
	}
	return snap
}

// ExportSeen serializes the seen-set for persistence.
func (a *AggregateState) ExportSeen() (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.seen.ToBase64()
}

// Restore replaces the folded state and seen-set from a persisted snapshot.
// Used only at startup, before any poller runs.
func (a *AggregateState) Restore(snap AggregateSnapshot, seen string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	bm := roaring.New()
	if seen != "" {
		if _, err := bm.FromBase64(seen); err != nil {
			return err
		}
	}
	a.seen = bm
	a.checkinsTotal = snap.CheckinsTotal
	a.distanceMeters = snap.DistanceMeters
	a.durationMinutes = snap.DurationMinutes
	a.pointsTotal = snap.PointsTotal
	a.delayedTotal = snap.DelayedTotal
	a.cancelledTotal = snap.CancelledTotal
	a.malformedTotal = snap.MalformedTotal
	a.byCategory = make(map[string]int64, len(snap.ByCategory))
	for k, v := range snap.ByCategory {
		a.byCategory[k] = v
	}
	a.byLine = make(map[string]int64, len(snap.ByLine))
	for k, v := range snap.ByLine {
		a.byLine[k] = v
	}
	a.lastCheckInAt = snap.LastCheckInAt
	a.lastLine = snap.LastLine
	a.watermark = snap.Watermark
	return nil
}
