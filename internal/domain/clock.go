package domain

import "github.com/jonboulle/clockwork"

// clock is the package time source. PROD windows are open-ended up to "now",
// so tests freeze it via SetClock for reproducible window bounds.
var clock = clockwork.NewRealClock()

// SetClock swaps the package time source. Pass nil to restore real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
