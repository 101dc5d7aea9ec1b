// Package timing provides the clock that every testbench task synchronizes
// to.
package timing

import (
	"log"
	"sync"

	"github.com/sarchlab/memverify/sim"
)

// HookPosTickBegin is a hook position that triggers before any participant
// works on a tick. The hook item is the tick number.
var HookPosTickBegin = &sim.HookPos{Name: "TickBegin"}

// HookPosTickEnd is a hook position that triggers after all the participants
// have finished a tick. The hook item is the tick number.
var HookPosTickEnd = &sim.HookPos{Name: "TickEnd"}

type participant struct {
	name  string
	phase Phase
	done  int64
}

// A Clock is the single tick source of a testbench. It works as a barrier:
// participants repeatedly call WaitForTick to get the tick to work on, do the
// work of their phase, and call MarkDone. The clock moves to the next phase
// once every participant of the current phase is done, and to the next tick
// once the last phase is done.
type Clock struct {
	sim.HookableBase

	mu   sync.Mutex
	cond *sync.Cond
	freq sim.Freq

	participants map[string]*participant
	numInPhase   [NumPhases]int

	now       sim.VTimeInCycle
	phase     Phase
	budget    sim.VTimeInCycle
	hasBudget bool

	started       bool
	ready         bool
	advancing     bool
	paused        bool
	stopRequested bool
	halted        bool
	err           error
	doneCh        chan struct{}
}

// NewClock creates a clock that ticks at the given frequency. The frequency is
// only used to convert tick numbers to time for reporting.
func NewClock(freq sim.Freq) *Clock {
	c := &Clock{
		freq:         freq,
		participants: make(map[string]*participant),
		doneCh:       make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	return c
}

// Freq returns the frequency of the clock.
func (c *Clock) Freq() sim.Freq {
	return c.freq
}

// Register adds a participant that works in the given phase of every tick.
func (c *Clock) Register(name string, phase Phase) {
	sim.NameMustBeValid(name)

	if !phase.valid() {
		log.Panicf("participant %s has invalid phase %d", name, phase)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		log.Panicf("cannot register %s after the clock started", name)
	}

	if _, found := c.participants[name]; found {
		log.Panicf("participant %s already registered", name)
	}

	c.participants[name] = &participant{name: name, phase: phase, done: -1}
	c.numInPhase[phase]++
}

// SetTickBudget limits the run to n ticks; the clock never advances to tick n.
// A budget of 0 removes the limit.
func (c *Clock) SetTickBudget(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.budget = sim.VTimeInCycle(n)
	c.hasBudget = n > 0
}

// Start releases the participants to work on tick 0.
func (c *Clock) Start() {
	c.mu.Lock()

	if c.started {
		c.mu.Unlock()
		log.Panic("clock already started")
	}

	if len(c.participants) == 0 {
		c.mu.Unlock()
		log.Panic("clock has no participant")
	}

	c.started = true
	c.phase = c.firstPhase()

	if c.halted || c.stopRequested {
		c.haltLocked(nil)
		c.mu.Unlock()

		return
	}

	c.mu.Unlock()

	c.invokeTickHook(HookPosTickBegin, 0)

	c.mu.Lock()
	if !c.halted {
		c.ready = true
		c.cond.Broadcast()
	}
	c.mu.Unlock()
}

// WaitForTick blocks until the named participant can work on a tick and
// returns that tick. It returns false once the clock has halted.
func (c *Clock) WaitForTick(name string) (sim.VTimeInCycle, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.mustFind(name)

	for {
		if c.halted {
			return 0, false
		}

		if c.ready && c.phase == p.phase && p.done < int64(c.now) {
			return c.now, true
		}

		c.cond.Wait()
	}
}

// MarkDone reports that the named participant has finished its work on the
// given tick.
func (c *Clock) MarkDone(name string, tick sim.VTimeInCycle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.mustFind(name)

	if c.halted {
		return
	}

	if tick != c.now || p.phase != c.phase || p.done >= int64(tick) {
		log.Panicf("%s marks tick %d done, but the clock is at tick %d, phase %s",
			name, tick, c.now, c.phase)
	}

	p.done = int64(tick)
	c.tryAdvanceLocked()
}

// Now returns the tick that the clock is at.
func (c *Clock) Now() sim.VTimeInCycle {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// CurrentPhase returns the phase that the clock is at.
func (c *Clock) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phase
}

// Stop halts the clock at the next tick boundary. The current tick, if any,
// completes first.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopRequested = true

	if !c.started {
		c.haltLocked(nil)
		return
	}

	c.tryAdvanceLocked()
}

// Abort halts the clock immediately, in the middle of a tick if needed. The
// error is kept and returned by Err.
func (c *Clock) Abort(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltLocked(err)
}

// Pause holds the clock at the next tick boundary until Continue is called.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = true
}

// Continue releases a paused clock.
func (c *Clock) Continue() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.paused {
		return
	}

	c.paused = false
	c.tryAdvanceLocked()
}

// IsPaused tells if the clock is paused.
func (c *Clock) IsPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.paused
}

// Done returns a channel that is closed when the clock halts.
func (c *Clock) Done() <-chan struct{} {
	return c.doneCh
}

// Err returns the error that the clock was aborted with, if any.
func (c *Clock) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.err
}

func (c *Clock) mustFind(name string) *participant {
	p, found := c.participants[name]
	if !found {
		log.Panicf("participant %s is not registered", name)
	}

	return p
}

func (c *Clock) firstPhase() Phase {
	return c.nextPhaseFrom(PhaseDrive)
}

// nextPhaseFrom returns the first phase at or after p that has participants,
// or NumPhases if there is none.
func (c *Clock) nextPhaseFrom(p Phase) Phase {
	for ; p < NumPhases; p++ {
		if c.numInPhase[p] > 0 {
			return p
		}
	}

	return NumPhases
}

func (c *Clock) phaseDoneLocked() bool {
	for _, p := range c.participants {
		if p.phase == c.phase && p.done < int64(c.now) {
			return false
		}
	}

	return true
}

func (c *Clock) tryAdvanceLocked() {
	for {
		if c.halted || c.advancing || !c.ready || !c.phaseDoneLocked() {
			return
		}

		next := c.nextPhaseFrom(c.phase + 1)
		if next < NumPhases {
			c.phase = next
			c.cond.Broadcast()

			continue
		}

		if c.paused && !c.stopRequested {
			return
		}

		c.advanceTickLocked()

		return
	}
}

func (c *Clock) advanceTickLocked() {
	finished := c.now

	c.advancing = true
	c.ready = false
	c.mu.Unlock()
	c.invokeTickHook(HookPosTickEnd, finished)
	c.mu.Lock()
	c.advancing = false

	if c.halted {
		return
	}

	if c.stopRequested || (c.hasBudget && finished+1 >= c.budget) {
		c.haltLocked(nil)
		return
	}

	c.now = finished + 1
	c.phase = c.firstPhase()

	c.advancing = true
	c.mu.Unlock()
	c.invokeTickHook(HookPosTickBegin, finished+1)
	c.mu.Lock()
	c.advancing = false

	if c.halted {
		return
	}

	c.ready = true
	c.cond.Broadcast()
}

func (c *Clock) haltLocked(err error) {
	if c.halted {
		return
	}

	c.halted = true
	c.err = err
	c.ready = false
	close(c.doneCh)
	c.cond.Broadcast()
}

func (c *Clock) invokeTickHook(pos *sim.HookPos, tick sim.VTimeInCycle) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Now:    tick,
		Pos:    pos,
		Item:   tick,
	})
}
