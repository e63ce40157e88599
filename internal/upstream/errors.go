package upstream

import (
	"errors"
	"fmt"
	"time"
)

type ErrorKind int

const (
	// KindTransient covers network failures and upstream 5xx. Retried with
	// backoff on the account's own loop.
	KindTransient ErrorKind = iota
	// KindRateLimited is an upstream 429. Retried after the upstream-provided
	// delay when one is present.
	KindRateLimited
	// KindPermanent covers revoked credentials, unknown accounts and other
	// non-429 4xx. Polling for the account halts.
	KindPermanent
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindPermanent:
		return "permanent"
	default:
		return "transient"
	}
}

// Error is a classified upstream fetch failure.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies any error returned by the client. Errors that are not
// *Error (which should not happen) default to transient so the account is
// never halted on a misclassification.
func KindOf(err error) ErrorKind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return KindTransient
}

// RetryAfterOf returns the upstream-provided retry delay, zero if none.
func RetryAfterOf(err error) time.Duration {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.RetryAfter
	}
	return 0
}
