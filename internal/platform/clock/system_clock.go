package clock

import "time"

// SystemClock returns the current wall-clock time in the process's local zone,
// so registration dates follow the association's calendar day.
type SystemClock struct{}

func NewSystemClock() SystemClock { return SystemClock{} }

func (SystemClock) Now() time.Time { return time.Now() }
