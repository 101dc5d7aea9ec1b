// Package driver provides the component that drives one transaction per tick
// into the device under test and into the reference model.
package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/timing"
	"github.com/sarchlab/memverify/txn"
)

// HookPosDrive triggers after the inputs of a tick are driven. The hook item
// is the transaction and the detail is the driven signal.Inputs.
var HookPosDrive = &sim.HookPos{Name: "Drive"}

// HookPosExhausted triggers once, at the tick where the stimulus runs out.
// The hook item is the *SequenceExhaustedError.
var HookPosExhausted = &sim.HookPos{Name: "Exhausted"}

// An Applier mirrors the driven transactions into a model of the device.
type Applier interface {
	Apply(tick sim.VTimeInCycle, tx txn.Transaction)
	HoldReset(tick sim.VTimeInCycle)
}

// A Driveable accepts the inputs of the device.
type Driveable interface {
	Drive(in signal.Inputs)
}

// A PendingCounter tells how many predictions wait to be compared.
type PendingCounter interface {
	Pending() int
}

// A SequenceExhaustedError reports that the stimulus ran out. It is not fatal:
// the driver keeps driving idle ticks so that pending predictions drain.
type SequenceExhaustedError struct {
	Tick               sim.VTimeInCycle
	PendingPredictions int
}

func (e *SequenceExhaustedError) Error() string {
	return fmt.Sprintf("sequence exhausted at tick %d with %d pending predictions",
		e.Tick, e.PendingPredictions)
}

// A Driver works in the drive phase of every tick.
type Driver struct {
	*sim.ComponentBase

	clock   *timing.Clock
	bus     Driveable
	model   Applier
	pending PendingCounter

	resetCycles uint64

	lock       sync.Mutex
	sourceDone bool
	exhausted  *SequenceExhaustedError
	numDriven  uint64
}

// NewDriver creates a driver and registers it to the drive phase of the
// clock.
func NewDriver(
	name string,
	clock *timing.Clock,
	bus Driveable,
	model Applier,
) *Driver {
	d := &Driver{
		ComponentBase: sim.NewComponentBase(name),
		clock:         clock,
		bus:           bus,
		model:         model,
		resetCycles:   1,
	}

	clock.Register(name, timing.PhaseDrive)

	return d
}

// SetResetCycles sets the number of ticks, starting from tick 0, that hold the
// device in reset.
func (d *Driver) SetResetCycles(n uint64) {
	d.resetCycles = n
}

// SetPendingCounter sets where the driver reads the number of pending
// predictions from when the stimulus runs out.
func (d *Driver) SetPendingCounter(p PendingCounter) {
	d.pending = p
}

// Run drives the device until the clock halts. After the reset ticks, every
// tick takes one transaction from the stimulus channel, waiting for it if
// needed. Once the channel is closed or the context is cancelled, idle
// transactions are driven.
func (d *Driver) Run(ctx context.Context, stimulus <-chan txn.Transaction) error {
	for {
		tick, ok := d.clock.WaitForTick(d.Name())
		if !ok {
			return nil
		}

		if uint64(tick) < d.resetCycles {
			d.driveReset(tick)
		} else {
			d.drive(tick, d.next(ctx, tick, stimulus))
		}

		d.clock.MarkDone(d.Name(), tick)
	}
}

// Exhausted returns the exhaustion report, or nil if the stimulus has not run
// out.
func (d *Driver) Exhausted() *SequenceExhaustedError {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.exhausted
}

// NumDriven returns the number of transactions taken from the stimulus.
func (d *Driver) NumDriven() uint64 {
	d.lock.Lock()
	defer d.lock.Unlock()

	return d.numDriven
}

func (d *Driver) next(
	ctx context.Context,
	tick sim.VTimeInCycle,
	stimulus <-chan txn.Transaction,
) txn.Transaction {
	d.lock.Lock()
	sourceDone := d.sourceDone
	d.lock.Unlock()

	if sourceDone {
		return txn.Idle()
	}

	select {
	case tx, ok := <-stimulus:
		if !ok {
			d.markExhausted(tick)
			return txn.Idle()
		}

		d.lock.Lock()
		d.numDriven++
		d.lock.Unlock()

		return tx
	case <-ctx.Done():
		d.lock.Lock()
		d.sourceDone = true
		d.lock.Unlock()

		return txn.Idle()
	}
}

func (d *Driver) markExhausted(tick sim.VTimeInCycle) {
	pending := 0
	if d.pending != nil {
		pending = d.pending.Pending()
	}

	e := &SequenceExhaustedError{Tick: tick, PendingPredictions: pending}

	d.lock.Lock()
	d.sourceDone = true
	d.exhausted = e
	d.lock.Unlock()

	d.invoke(tick, HookPosExhausted, e, nil)
}

func (d *Driver) driveReset(tick sim.VTimeInCycle) {
	in := signal.Inputs{ResetN: false}

	d.model.HoldReset(tick)
	d.bus.Drive(in)

	d.invoke(tick, HookPosDrive, txn.Idle(), in)
}

func (d *Driver) drive(tick sim.VTimeInCycle, tx txn.Transaction) {
	in := signal.Inputs{
		ResetN:      true,
		WriteEnable: tx.Write,
		ReadEnable:  tx.Read,
		WriteData:   tx.Data,
	}

	d.model.Apply(tick, tx)
	d.bus.Drive(in)

	d.invoke(tick, HookPosDrive, tx, in)
}

func (d *Driver) invoke(
	tick sim.VTimeInCycle,
	pos *sim.HookPos,
	item, detail interface{},
) {
	if d.NumHooks() == 0 {
		return
	}

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Now:    tick,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
