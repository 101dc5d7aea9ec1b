// Package refmodel provides the reference model that predicts what the memory
// device must output, given only the transactions that were driven into it.
package refmodel

import (
	"fmt"
	"sync"

	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/txn"
)

// NumWords is the number of words in the modeled device.
const NumWords = 16

// HookPosApply triggers after a transaction is applied to the model. The hook
// item is the transaction and the detail is the address it was applied to.
var HookPosApply = &sim.HookPos{Name: "Apply"}

// HookPosPredict triggers when the model predicts an output value. The hook
// item is the predicted byte and the detail is the address it was read from.
var HookPosPredict = &sim.HookPos{Name: "Predict"}

// A PredictionSink receives the predicted output values in order.
type PredictionSink interface {
	// Push records that the output register must hold the value after the
	// clock edge of the given tick.
	Push(tick sim.VTimeInCycle, value byte)
}

// DeviceState is the internal state of the device as the model tracks it.
type DeviceState struct {
	Address       uint8
	Memory        [NumWords]byte
	PendingOutput *byte
}

// Clone returns a deep copy of the state.
func (s DeviceState) Clone() DeviceState {
	c := s

	if s.PendingOutput != nil {
		v := *s.PendingOutput
		c.PendingOutput = &v
	}

	return c
}

func (s DeviceState) String() string {
	out := "none"
	if s.PendingOutput != nil {
		out = fmt.Sprintf("0x%02X", *s.PendingOutput)
	}

	return fmt.Sprintf("addr=%d out=%s mem=% X", s.Address, out, s.Memory[:])
}

// A Model is the golden model of the device. It owns the device state and is
// updated once per tick, before the DUT sees the clock edge of that tick.
type Model struct {
	*sim.ComponentBase

	lock  sync.Mutex
	state DeviceState
	sink  PredictionSink
}

// NewModel creates a reference model in the reset state. Predictions are
// pushed to the sink.
func NewModel(name string, sink PredictionSink) *Model {
	if sink == nil {
		panic("reference model requires a prediction sink")
	}

	return &Model{
		ComponentBase: sim.NewComponentBase(name),
		sink:          sink,
	}
}

// Apply updates the state with the transaction driven at the tick. A write
// takes effect before a read of the same tick. A read predicts the word at
// the current address as the output after this tick's edge. The address
// always advances.
func (m *Model) Apply(tick sim.VTimeInCycle, tx txn.Transaction) {
	m.lock.Lock()

	addr := m.state.Address

	if tx.Write {
		m.state.Memory[addr] = tx.Data
	}

	var (
		predicted byte
		hasRead   bool
	)

	if tx.Read {
		predicted = m.state.Memory[addr]
		hasRead = true
		m.state.PendingOutput = &predicted
	}

	m.state.Address = (addr + 1) % NumWords

	m.lock.Unlock()

	if hasRead {
		m.sink.Push(tick, predicted)
		m.invoke(tick, HookPosPredict, predicted, addr)
	}

	m.invoke(tick, HookPosApply, tx, addr)
}

// HoldReset updates the state for a tick in which reset is asserted. The
// address is held at 0 and the output register is cleared. The memory keeps
// its content.
func (m *Model) HoldReset(tick sim.VTimeInCycle) {
	m.lock.Lock()
	m.state.Address = 0
	m.state.PendingOutput = nil
	m.lock.Unlock()

	m.invoke(tick, HookPosApply, txn.Idle(), uint8(0))
}

// Reset puts the model into the all-zero state.
func (m *Model) Reset() {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.state = DeviceState{}
}

// State returns a copy of the current device state.
func (m *Model) State() DeviceState {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.state.Clone()
}

func (m *Model) invoke(
	tick sim.VTimeInCycle,
	pos *sim.HookPos,
	item interface{},
	addr uint8,
) {
	if m.NumHooks() == 0 {
		return
	}

	m.InvokeHook(sim.HookCtx{
		Domain: m,
		Now:    tick,
		Pos:    pos,
		Item:   item,
		Detail: addr,
	})
}
