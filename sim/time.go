package sim

// VTimeInCycle is the simulated time counted in clock ticks since the start
// of a run. Tick 0 is the first tick.
type VTimeInCycle uint64

// VTimeInSec defines the time in the simulated space in the unit of second
type VTimeInSec float64
