package ledger

import "time"

// Clock supplies the current time. The allocator takes a Clock so that
// overdue ordering and credit due dates are deterministic in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
