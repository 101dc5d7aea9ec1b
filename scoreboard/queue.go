package scoreboard

import (
	"log"
	"sync"

	"github.com/sarchlab/memverify/sim"
)

// A Prediction is a value that the output register must hold after the edge
// of the tick that it was issued at.
type Prediction struct {
	IssuedAt sim.VTimeInCycle
	Value    byte
}

// An ExpectedQueue is the ordered queue of predictions between the reference
// model, which pushes, and the scoreboard, which pops. It is safe to push and
// pop from different goroutines.
type ExpectedQueue struct {
	lock   sync.Mutex
	buf    sim.Buffer
	pushed uint64
	popped uint64
}

// NewExpectedQueue creates a queue that can hold up to capacity predictions.
func NewExpectedQueue(name string, capacity int) *ExpectedQueue {
	return &ExpectedQueue{
		buf: sim.NewBuffer(name, capacity),
	}
}

// Buffer returns the underlying buffer, mostly for hooking.
func (q *ExpectedQueue) Buffer() sim.Buffer {
	return q.buf
}

// Push appends a prediction. It panics if the queue is full, as that means
// the consumer has stopped popping.
func (q *ExpectedQueue) Push(tick sim.VTimeInCycle, value byte) {
	q.lock.Lock()
	defer q.lock.Unlock()

	if !q.buf.CanPush() {
		log.Panicf("expected queue %s is full at tick %d", q.buf.Name(), tick)
	}

	q.buf.Push(Prediction{IssuedAt: tick, Value: value})
	q.pushed++
}

// Pop removes the oldest prediction. It returns false if the queue is empty.
func (q *ExpectedQueue) Pop() (Prediction, bool) {
	q.lock.Lock()
	defer q.lock.Unlock()

	e := q.buf.Pop()
	if e == nil {
		return Prediction{}, false
	}

	q.popped++

	return e.(Prediction), true
}

// Len returns the number of predictions waiting to be compared.
func (q *ExpectedQueue) Len() int {
	return q.buf.Size()
}

// Counts returns how many predictions were pushed and popped in total.
func (q *ExpectedQueue) Counts() (pushed, popped uint64) {
	q.lock.Lock()
	defer q.lock.Unlock()

	return q.pushed, q.popped
}

// Clear drops all predictions and resets the counters.
func (q *ExpectedQueue) Clear() {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.buf.Clear()
	q.pushed = 0
	q.popped = 0
}
