package domain

import "github.com/jonboulle/clockwork"

// clock stamps export records. Tests freeze it with SetClock for stable timestamps.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used by AssembleExport. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
