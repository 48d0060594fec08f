package clock

import "time"

// Clock provides time to the application.
// Services take a Clock so tests can pin timestamps.
type Clock interface {
	Now() time.Time
}
