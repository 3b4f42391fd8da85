package reservation

import "time"

// DefaultTTL is how long a voucher reservation stays exclusive before it may
// be reclaimed by another caller.
const DefaultTTL = 15 * time.Minute

// Clock is the reservation time-to-live policy. The TTL is uniform across all
// vouchers in a deployment; there are no per-voucher overrides.
type Clock struct {
	ttl time.Duration
}

// NewClock creates a Clock with the given TTL, falling back to DefaultTTL for
// non-positive values.
func NewClock(ttl time.Duration) Clock {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Clock{ttl: ttl}
}

// TTL returns the configured time-to-live.
func (c Clock) TTL() time.Duration {
	return c.ttl
}

// IsExpired reports whether a reservation placed at reservedAt has outlived
// its TTL as of now.
func (c Clock) IsExpired(reservedAt, now time.Time) bool {
	return !reservedAt.Add(c.ttl).After(now)
}

// Deadline returns the instant at which a reservation placed at reservedAt
// stops being exclusive.
func (c Clock) Deadline(reservedAt time.Time) time.Time {
	return reservedAt.Add(c.ttl)
}

// Cutoff returns the reservation timestamp before which a reservation counts
// as expired at the given instant. Conditional updates compare reserved_at
// against this value.
func (c Clock) Cutoff(now time.Time) time.Time {
	return now.Add(-c.ttl)
}
