// Package testbench assembles the verification components around a device
// under test and runs them on one clock.
package testbench

import (
	"context"
	"errors"
	"sync"

	"github.com/sarchlab/memverify/config"
	"github.com/sarchlab/memverify/driver"
	"github.com/sarchlab/memverify/monitor"
	"github.com/sarchlab/memverify/monitoring"
	"github.com/sarchlab/memverify/refmodel"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sequence"
	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/timing"
	"github.com/sarchlab/memverify/tracing"
	"github.com/sarchlab/memverify/txn"
)

// A Testbench verifies a device by driving it and a reference model with the
// same stimulus and comparing what the device outputs with what the model
// predicts. A Testbench can run only once.
type Testbench struct {
	name  string
	cfg   config.Config
	runID string
	seed  int64

	clock      *timing.Clock
	dut        signal.DUT
	bus        *signal.Bus
	queue      *scoreboard.ExpectedQueue
	model      *refmodel.Model
	scoreboard *scoreboard.Scoreboard
	driver     *driver.Driver
	monitor    *monitor.Monitor
	sequencer  *sequence.Sequencer
	provider   sequence.Provider
	edgeName   string

	dbRecorder *tracing.DBRecorder
	server     *monitoring.Server
	progress   *monitoring.ProgressBar

	lock     sync.Mutex
	ran      bool
	ticksRun uint64
}

// RunID returns the unique ID of the run.
func (tb *Testbench) RunID() string {
	return tb.runID
}

// Seed returns the seed of the stimulus. It is 0 for directed runs unless a
// seed is configured.
func (tb *Testbench) Seed() int64 {
	return tb.seed
}

// Clock returns the clock of the testbench.
func (tb *Testbench) Clock() *timing.Clock {
	return tb.clock
}

// Model returns the reference model.
func (tb *Testbench) Model() *refmodel.Model {
	return tb.model
}

// Queue returns the queue of pending predictions.
func (tb *Testbench) Queue() *scoreboard.ExpectedQueue {
	return tb.queue
}

// Scoreboard returns the scoreboard.
func (tb *Testbench) Scoreboard() *scoreboard.Scoreboard {
	return tb.scoreboard
}

// Driver returns the driver.
func (tb *Testbench) Driver() *driver.Driver {
	return tb.driver
}

// Monitor returns the monitor.
func (tb *Testbench) Monitor() *monitor.Monitor {
	return tb.monitor
}

// Run resets the reference model and runs the testbench until the tick budget
// is used up, the stimulus is exhausted and the predictions have drained, or
// the context is cancelled. Cancellation takes effect at a tick boundary. A
// fatal error aborts the run at once and is returned together with the
// result.
func (tb *Testbench) Run(ctx context.Context) (*Result, error) {
	tb.lock.Lock()
	if tb.ran {
		tb.lock.Unlock()
		return nil, errors.New("testbench " + tb.name + " already ran")
	}
	tb.ran = true
	tb.lock.Unlock()

	tb.model.Reset()
	tb.queue.Clear()

	if r, ok := tb.provider.(sequence.Restarter); ok {
		r.Restart()
	}

	stimulus := make(chan txn.Transaction)
	seqCtx, cancelSeq := context.WithCancel(context.Background())

	var wg sync.WaitGroup

	wg.Add(4)

	go func() {
		defer wg.Done()
		_ = tb.sequencer.Run(seqCtx, tb.provider, stimulus)
	}()

	go func() {
		defer wg.Done()
		_ = tb.driver.Run(ctx, stimulus)
	}()

	go func() {
		defer wg.Done()
		tb.runEdges()
	}()

	go func() {
		defer wg.Done()
		_ = tb.monitor.Run()
	}()

	go func() {
		select {
		case <-ctx.Done():
			tb.clock.Stop()
		case <-tb.clock.Done():
		}
	}()

	tb.clock.Start()
	<-tb.clock.Done()

	cancelSeq()
	wg.Wait()

	if tb.server != nil && tb.progress != nil {
		tb.server.CompleteProgressBar(tb.progress)
	}

	result := tb.result()
	tb.record(result)

	if result.Fatal != nil {
		return result, result.Fatal
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}

	return result, nil
}

// runEdges applies the clock edge to the device in the edge phase of every
// tick.
func (tb *Testbench) runEdges() {
	for {
		tick, ok := tb.clock.WaitForTick(tb.edgeName)
		if !ok {
			return
		}

		tb.bus.Posedge()
		tb.clock.MarkDone(tb.edgeName, tick)
	}
}

// onTick ends the run once the stimulus is exhausted and every prediction has
// been compared. Without a tick budget, the run also ends when the
// predictions fail to drain within the drain cycles.
func (tb *Testbench) onTick(ctx sim.HookCtx) {
	if ctx.Pos != timing.HookPosTickEnd {
		return
	}

	tick := ctx.Item.(sim.VTimeInCycle)

	tb.lock.Lock()
	tb.ticksRun = uint64(tick) + 1
	tb.lock.Unlock()

	if tb.progress != nil {
		tb.progress.IncrementFinished(1)
	}

	exhausted := tb.driver.Exhausted()
	if exhausted == nil {
		return
	}

	if tb.scoreboard.Pending() == 0 {
		tb.clock.Stop()
		return
	}

	if tb.cfg.TickBudget == 0 &&
		uint64(tick-exhausted.Tick) >= tb.cfg.DrainCycles {
		tb.clock.Stop()
	}
}

// Snapshot is the live status of a run.
type Snapshot struct {
	RunID       string `json:"run_id"`
	TicksRun    uint64 `json:"ticks_run"`
	Comparisons int    `json:"comparisons"`
	Mismatches  int    `json:"mismatches"`
	Pending     int    `json:"pending"`
	Uncompared  uint64 `json:"uncompared"`
	Exhausted   bool   `json:"exhausted"`
}

// Snapshot returns the live status of the run.
func (tb *Testbench) Snapshot() Snapshot {
	tb.lock.Lock()
	ticksRun := tb.ticksRun
	tb.lock.Unlock()

	return Snapshot{
		RunID:       tb.runID,
		TicksRun:    ticksRun,
		Comparisons: tb.scoreboard.NumVerdicts(),
		Mismatches:  tb.scoreboard.MismatchCount(),
		Pending:     tb.scoreboard.Pending(),
		Uncompared:  tb.scoreboard.Uncompared(),
		Exhausted:   tb.driver.Exhausted() != nil,
	}
}

func (tb *Testbench) result() *Result {
	tb.lock.Lock()
	ticksRun := tb.ticksRun
	tb.lock.Unlock()

	r := &Result{
		RunID:         tb.runID,
		Mode:          tb.cfg.Mode,
		Seed:          tb.seed,
		TicksRun:      ticksRun,
		Verdicts:      tb.scoreboard.Verdicts(),
		MismatchCount: tb.scoreboard.MismatchCount(),
		FirstMismatch: tb.scoreboard.FirstMismatch(),
		Uncompared:    tb.scoreboard.Uncompared(),
		Exhausted:     tb.driver.Exhausted(),
		Fatal:         tb.clock.Err(),
	}

	r.Passed = len(r.Verdicts) > 0 && r.MismatchCount == 0 && r.Fatal == nil

	return r
}

func (tb *Testbench) record(r *Result) {
	if tb.dbRecorder == nil {
		return
	}

	entry := tracing.RunEntry{
		Mode:        string(r.Mode),
		Seed:        r.Seed,
		Ticks:       r.TicksRun,
		Comparisons: len(r.Verdicts),
		Mismatches:  r.MismatchCount,
		Uncompared:  r.Uncompared,
		Passed:      r.Passed,
		Summary:     r.Summary(),
	}

	if r.Fatal != nil {
		entry.Fatal = r.Fatal.Error()
	}

	tb.dbRecorder.RecordRun(entry)
}
