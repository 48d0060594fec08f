package clock

import "time"

// SystemClock returns the current UTC time truncated to microseconds,
// the precision Postgres timestamptz columns keep.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
