// Package monitor samples the outputs of the device under test once per tick
// and broadcasts what it sees.
package monitor

import (
	"fmt"
	"sync"

	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/timing"
	"github.com/sarchlab/memverify/txn"
)

// HookPosSample triggers after every sample. The hook item is the
// Observation.
var HookPosSample = &sim.HookPos{Name: "Sample"}

// An Observation is what the monitor sees at one tick. Tx is derived from the
// signals: the enables as driven in the tick and the read data after the
// clock edge of the tick.
type Observation struct {
	Tick   sim.VTimeInCycle
	Tx     txn.Transaction
	Inputs signal.Inputs
}

func (o Observation) String() string {
	return fmt.Sprintf("@%d %s rdata=0x%02X", o.Tick, o.Inputs, o.Tx.Data)
}

// A Subscriber is notified of every observation. An error returned by a
// subscriber is fatal to the run.
type Subscriber interface {
	Notify(obs Observation) error
}

// SubscriberFunc turns a function into a Subscriber.
type SubscriberFunc func(obs Observation) error

// Notify calls the function.
func (f SubscriberFunc) Notify(obs Observation) error {
	return f(obs)
}

// A Sampler provides the signals to sample.
type Sampler interface {
	Sample() (signal.Inputs, signal.Outputs)
}

// A Monitor samples the bus in the sample phase of every tick.
type Monitor struct {
	*sim.ComponentBase

	clock *timing.Clock
	bus   Sampler

	lock        sync.Mutex
	subscribers []Subscriber
	numSampled  uint64
}

// NewMonitor creates a monitor and registers it to the sample phase of the
// clock.
func NewMonitor(name string, clock *timing.Clock, bus Sampler) *Monitor {
	m := &Monitor{
		ComponentBase: sim.NewComponentBase(name),
		clock:         clock,
		bus:           bus,
	}

	clock.Register(name, timing.PhaseSample)

	return m
}

// Subscribe adds a subscriber. Subscribers are notified in the order they
// subscribed.
func (m *Monitor) Subscribe(s Subscriber) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.subscribers = append(m.subscribers, s)
}

// NumSampled returns how many ticks have been sampled.
func (m *Monitor) NumSampled() uint64 {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.numSampled
}

// Run samples every tick until the clock halts. If a subscriber fails, the
// clock is aborted with the error and Run returns it.
func (m *Monitor) Run() error {
	for {
		tick, ok := m.clock.WaitForTick(m.Name())
		if !ok {
			return nil
		}

		err := m.Sample(tick)
		if err != nil {
			m.clock.Abort(err)
			return err
		}

		m.clock.MarkDone(m.Name(), tick)
	}
}

// Sample takes one sample of the bus and notifies all the subscribers. It
// stops at the first subscriber that returns an error.
func (m *Monitor) Sample(tick sim.VTimeInCycle) error {
	in, out := m.bus.Sample()

	obs := Observation{
		Tick: tick,
		Tx: txn.Transaction{
			Write: in.WriteEnable,
			Read:  in.ReadEnable,
			Data:  out.ReadData,
		},
		Inputs: in,
	}

	m.lock.Lock()
	m.numSampled++
	subscribers := m.subscribers
	m.lock.Unlock()

	if m.NumHooks() > 0 {
		m.InvokeHook(sim.HookCtx{
			Domain: m,
			Now:    tick,
			Pos:    HookPosSample,
			Item:   obs,
		})
	}

	for _, s := range subscribers {
		err := s.Notify(obs)
		if err != nil {
			return err
		}
	}

	return nil
}
