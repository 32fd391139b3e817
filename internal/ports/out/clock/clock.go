package clock

import "time"

// Clock provides time to the application.
// Registration dates are derived from it, so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// Today returns c's current calendar date as YYYY-MM-DD.
func Today(c Clock) string {
	return c.Now().Format(time.DateOnly)
}
