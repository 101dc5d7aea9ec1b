// Package scoreboard pairs the values observed on the DUT output with the
// values that the reference model predicted and keeps the verdicts.
package scoreboard

import (
	"fmt"
	"sync"

	"github.com/sarchlab/memverify/monitor"
	"github.com/sarchlab/memverify/sim"
)

// HookPosVerdict triggers for every comparison. The hook item is the Verdict.
var HookPosVerdict = &sim.HookPos{Name: "Verdict"}

// HookPosMismatch triggers for every failing comparison. The hook item is the
// MismatchError.
var HookPosMismatch = &sim.HookPos{Name: "Mismatch"}

// A Verdict is the result of one comparison.
type Verdict struct {
	Tick     sim.VTimeInCycle
	IssuedAt sim.VTimeInCycle
	Expected byte
	Observed byte
	Matched  bool
}

func (v Verdict) String() string {
	result := "match"
	if !v.Matched {
		result = "MISMATCH"
	}

	return fmt.Sprintf("@%d expected=0x%02X observed=0x%02X %s",
		v.Tick, v.Expected, v.Observed, result)
}

// A Scoreboard compares observations with predictions.
type Scoreboard struct {
	*sim.ComponentBase

	queue  *ExpectedQueue
	policy Policy

	lock       sync.Mutex
	verdicts   []Verdict
	mismatches []MismatchError
	uncompared uint64
}

// NewScoreboard creates a scoreboard that pops predictions from the queue.
func NewScoreboard(
	name string,
	queue *ExpectedQueue,
	policy Policy,
) *Scoreboard {
	if queue == nil {
		panic("scoreboard requires an expected queue")
	}

	policy, err := ParsePolicy(string(policy))
	if err != nil {
		panic(err)
	}

	return &Scoreboard{
		ComponentBase: sim.NewComponentBase(name),
		queue:         queue,
		policy:        policy,
	}
}

// Policy returns the correlation policy of the scoreboard.
func (s *Scoreboard) Policy() Policy {
	return s.policy
}

// Queue returns the queue that the scoreboard pops from.
func (s *Scoreboard) Queue() *ExpectedQueue {
	return s.queue
}

// Notify handles an observation from the monitor. Under the lenient policy
// every observation is offered to Compare. Under the strict policy only the
// observations of ticks that asserted read enable are.
func (s *Scoreboard) Notify(obs monitor.Observation) error {
	if s.policy == PolicyStrict && !obs.Tx.Read {
		s.lock.Lock()
		s.uncompared++
		s.lock.Unlock()

		return nil
	}

	return s.Compare(obs.Tick, obs.Tx.Data)
}

// Compare pairs the observed value with the oldest pending prediction. If no
// prediction is pending, the observation is skipped under the lenient policy
// and a QueueUnderflowError is returned under the strict policy. A mismatch
// is recorded, not returned.
func (s *Scoreboard) Compare(tick sim.VTimeInCycle, observed byte) error {
	prediction, ok := s.queue.Pop()
	if !ok {
		return s.handleEmptyQueue(tick)
	}

	v := Verdict{
		Tick:     tick,
		IssuedAt: prediction.IssuedAt,
		Expected: prediction.Value,
		Observed: observed,
		Matched:  prediction.Value == observed,
	}

	var mismatch *MismatchError

	s.lock.Lock()
	s.verdicts = append(s.verdicts, v)

	if !v.Matched {
		mismatch = &MismatchError{
			Tick:     tick,
			IssuedAt: prediction.IssuedAt,
			Expected: prediction.Value,
			Observed: observed,
		}
		s.mismatches = append(s.mismatches, *mismatch)
	}
	s.lock.Unlock()

	s.invoke(tick, HookPosVerdict, v)

	if mismatch != nil {
		s.invoke(tick, HookPosMismatch, *mismatch)
	}

	return nil
}

func (s *Scoreboard) handleEmptyQueue(tick sim.VTimeInCycle) error {
	if s.policy == PolicyStrict {
		pushed, popped := s.queue.Counts()

		return &QueueUnderflowError{
			Tick:   tick,
			Pushed: pushed,
			Popped: popped,
			Policy: s.policy,
		}
	}

	s.lock.Lock()
	s.uncompared++
	s.lock.Unlock()

	return nil
}

// Verdicts returns a copy of the verdict log.
func (s *Scoreboard) Verdicts() []Verdict {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]Verdict(nil), s.verdicts...)
}

// NumVerdicts returns the length of the verdict log.
func (s *Scoreboard) NumVerdicts() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.verdicts)
}

// Mismatches returns all the recorded mismatches.
func (s *Scoreboard) Mismatches() []MismatchError {
	s.lock.Lock()
	defer s.lock.Unlock()

	return append([]MismatchError(nil), s.mismatches...)
}

// FirstMismatch returns the earliest mismatch, or nil if there is none.
func (s *Scoreboard) FirstMismatch() *MismatchError {
	s.lock.Lock()
	defer s.lock.Unlock()

	if len(s.mismatches) == 0 {
		return nil
	}

	first := s.mismatches[0]

	return &first
}

// MismatchCount returns the number of failing verdicts.
func (s *Scoreboard) MismatchCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.mismatches)
}

// Pending returns the number of predictions not compared yet.
func (s *Scoreboard) Pending() int {
	return s.queue.Len()
}

// Uncompared returns the number of observations that were not compared.
func (s *Scoreboard) Uncompared() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.uncompared
}

func (s *Scoreboard) invoke(
	tick sim.VTimeInCycle,
	pos *sim.HookPos,
	item interface{},
) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Now:    tick,
		Pos:    pos,
		Item:   item,
	})
}
