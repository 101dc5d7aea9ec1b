package testbench

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/memverify/config"
	"github.com/sarchlab/memverify/driver"
	"github.com/sarchlab/memverify/scoreboard"
)

// Result is the outcome of a run.
type Result struct {
	RunID    string
	Mode     config.Mode
	Seed     int64
	TicksRun uint64

	// Verdicts is the log of all the comparisons, in tick order.
	Verdicts      []scoreboard.Verdict
	MismatchCount int
	FirstMismatch *scoreboard.MismatchError

	// Uncompared counts the observations that had no prediction to be compared
	// with.
	Uncompared uint64

	// Exhausted is set if the stimulus ran out during the run.
	Exhausted *driver.SequenceExhaustedError

	// Fatal is the error that aborted the run, if any.
	Fatal error

	// Passed is true if at least one comparison happened, no comparison
	// failed, and the run was not aborted.
	Passed bool
}

// Summary returns a one-line description of the result.
func (r *Result) Summary() string {
	var b strings.Builder

	if r.Passed {
		b.WriteString("PASS")
	} else {
		b.WriteString("FAIL")
	}

	fmt.Fprintf(&b, " run=%s mode=%s seed=%d ticks=%d comparisons=%d mismatches=%d",
		r.RunID, r.Mode, r.Seed, r.TicksRun, len(r.Verdicts), r.MismatchCount)

	if r.FirstMismatch != nil {
		fmt.Fprintf(&b, " first: %s", r.FirstMismatch)
	}

	if r.Fatal != nil {
		fmt.Fprintf(&b, " fatal: %s", r.Fatal)

		var underflow *scoreboard.QueueUnderflowError
		if errors.As(r.Fatal, &underflow) {
			fmt.Fprintf(&b, " (violated: %s)", underflow.Invariant())
		}
	}

	if len(r.Verdicts) == 0 && r.Fatal == nil {
		b.WriteString(" (no comparison happened)")
	}

	return b.String()
}
