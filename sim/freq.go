package sim

import (
	"log"
	"math"
)

// Freq defines the type of frequency
type Freq float64

// Defines the unit of frequency
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks
func (f Freq) Period() VTimeInSec {
	if f == 0 {
		log.Panic("frequency cannot be 0")
	}

	return VTimeInSec(1.0 / f)
}

// Time converts a tick number to the time at which the tick starts.
func (f Freq) Time(cycle VTimeInCycle) VTimeInSec {
	return VTimeInSec(float64(cycle) * float64(f.Period()))
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInSec) VTimeInCycle {
	if math.IsNaN(float64(time)) || time < 0 {
		log.Panic("invalid time")
	}

	return VTimeInCycle(math.Round(float64(time) * float64(f)))
}

// HalfTick returns the time in the middle of the given tick. Sampling happens
// there, after the rising edge has settled.
//
//	               Input
//	               |
//	    |----------|----------|----------|----->
//	                    |
//	                    Output
func (f Freq) HalfTick(cycle VTimeInCycle) VTimeInSec {
	return f.Time(cycle) + f.Period()/2
}
