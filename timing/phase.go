package timing

import "fmt"

// Phase identifies an ordered step inside one tick. All the participants of a
// phase finish before any participant of the next phase starts.
type Phase int

// The phases of a tick, in execution order.
const (
	// PhaseDrive is when stimulus is asserted on the DUT inputs and handed to
	// the reference model.
	PhaseDrive Phase = iota

	// PhaseEdge is the rising clock edge, where the DUT updates its
	// registers.
	PhaseEdge

	// PhaseSample is when the DUT outputs are sampled, after the edge.
	PhaseSample

	// NumPhases is the number of phases in a tick.
	NumPhases
)

func (p Phase) String() string {
	switch p {
	case PhaseDrive:
		return "Drive"
	case PhaseEdge:
		return "Edge"
	case PhaseSample:
		return "Sample"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) valid() bool {
	return p >= PhaseDrive && p < NumPhases
}
