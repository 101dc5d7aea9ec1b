package scoreboard

import (
	"fmt"

	"github.com/sarchlab/memverify/sim"
)

// A MismatchError reports that the DUT output differs from the prediction. It
// is recorded and never stops a run.
type MismatchError struct {
	Tick     sim.VTimeInCycle
	IssuedAt sim.VTimeInCycle
	Expected byte
	Observed byte
}

func (e MismatchError) Error() string {
	return fmt.Sprintf(
		"mismatch at tick %d: expected 0x%02X, observed 0x%02X "+
			"(read issued at tick %d)",
		e.Tick, e.Expected, e.Observed, e.IssuedAt)
}

// A QueueUnderflowError reports that the scoreboard had to compare an
// observation but no prediction was pending. It indicates a harness bug, not
// a DUT bug, and aborts the run.
type QueueUnderflowError struct {
	Tick   sim.VTimeInCycle
	Pushed uint64
	Popped uint64
	Policy Policy
}

func (e *QueueUnderflowError) Error() string {
	return fmt.Sprintf(
		"expected queue underflow at tick %d under %s policy "+
			"(pushed %d, popped %d)",
		e.Tick, e.Policy, e.Pushed, e.Popped)
}

// Invariant names the invariant that the error violates.
func (e *QueueUnderflowError) Invariant() string {
	return "every read must have a pending prediction " +
		"(expected queue popped faster than pushed)"
}
