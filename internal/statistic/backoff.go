package statistic

import "time"

const backoffFactor = 2

// backoff is the per-account retry delay state. Not safe for concurrent use;
// each poll loop owns exactly one.
type backoff struct {
	base    time.Duration
	max     time.Duration
	current time.Duration
}

func newBackoff(base, max time.Duration) *backoff {
	return &backoff{base: base, max: max}
}

// Next returns the delay to wait before the next attempt and grows the
// internal state: base, then base*2, base*4, ... capped at max.
func (b *backoff) Next() time.Duration {
	if b.current == 0 {
		b.current = b.base
	} else {
		b.current *= backoffFactor
		if b.current > b.max {
			b.current = b.max
		}
	}
	return b.current
}

// Reset drops back to the base delay. Called after any fully successful
// poll cycle.
func (b *backoff) Reset() {
	b.current = 0
}

// Active reports whether the account is currently backing off.
func (b *backoff) Active() bool {
	return b.current != 0
}
