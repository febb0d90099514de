package engine

import "time"

// Clock supplies the current time to eligibility checks. Services take a
// Clock so tests can pin the window edge cases without sleeping.
type Clock func() time.Time

// SystemClock reads the ambient wall clock.
func SystemClock() time.Time {
	return time.Now()
}
