package sequence

import (
	"context"
	"sync/atomic"

	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/txn"
)

// A Sequencer feeds the transactions of a provider into a channel.
type Sequencer struct {
	*sim.ComponentBase

	numIssued atomic.Uint64
}

// NewSequencer creates a Sequencer.
func NewSequencer(name string) *Sequencer {
	return &Sequencer{
		ComponentBase: sim.NewComponentBase(name),
	}
}

// NumIssued returns the number of transactions delivered so far.
func (s *Sequencer) NumIssued() uint64 {
	return s.numIssued.Load()
}

// Run delivers the transactions of the provider in order. It closes the
// channel when the provider runs out or when the context is cancelled, and
// returns the context error in the latter case.
func (s *Sequencer) Run(
	ctx context.Context,
	p Provider,
	out chan<- txn.Transaction,
) error {
	defer close(out)

	for {
		tx, ok := p.Next()
		if !ok {
			return nil
		}

		select {
		case out <- tx:
			s.numIssued.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
