package dataset

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock stamps snapshot load times so tests can freeze them via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time of the dataset clock.
func Now() time.Time {
	return clock.Now()
}
