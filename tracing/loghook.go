// Package tracing records what happens in a testbench, either as log lines or
// as rows in a database.
package tracing

import (
	"log"

	"github.com/sarchlab/memverify/driver"
	"github.com/sarchlab/memverify/refmodel"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/txn"
)

// LogHook prints the activity of the testbench components. Mismatches and
// stimulus exhaustion are always printed. Driven transactions, predictions
// and verdicts are printed only when verbose.
type LogHook struct {
	sim.LogHookBase

	freq    sim.Freq
	verbose bool
}

// NewLogHook creates a LogHook that writes into the logger. The frequency
// converts ticks to time.
func NewLogHook(logger *log.Logger, freq sim.Freq, verbose bool) *LogHook {
	h := new(LogHook)
	h.Logger = logger
	h.freq = freq
	h.verbose = verbose

	return h
}

// Func writes the hook information into the logger.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case scoreboard.HookPosMismatch:
		h.print(ctx, "%s", ctx.Item.(scoreboard.MismatchError))
	case driver.HookPosExhausted:
		h.print(ctx, "%s", ctx.Item.(*driver.SequenceExhaustedError))
	}

	if !h.verbose {
		return
	}

	switch ctx.Pos {
	case driver.HookPosDrive:
		h.print(ctx, "drive %s [%s]",
			ctx.Item.(txn.Transaction), ctx.Detail.(signal.Inputs))
	case refmodel.HookPosPredict:
		h.print(ctx, "predict 0x%02X from address %d",
			ctx.Item.(byte), ctx.Detail.(uint8))
	case scoreboard.HookPosVerdict:
		h.print(ctx, "verdict %s", ctx.Item.(scoreboard.Verdict))
	}
}

func (h *LogHook) print(ctx sim.HookCtx, format string, args ...any) {
	name := "-"
	if named, ok := ctx.Domain.(sim.Named); ok {
		name = named.Name()
	}

	prefix := []any{h.freq.Time(ctx.Now), ctx.Now, name}

	h.Logger.Printf("%.10f, %d, %s, "+format,
		append(prefix, args...)...)
}
