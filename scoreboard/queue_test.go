package scoreboard

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExpectedQueue", func() {
	var q *ExpectedQueue

	BeforeEach(func() {
		q = NewExpectedQueue("TB.ExpectedQueue", 2)
	})

	It("should pop in push order", func() {
		q.Push(1, 0x11)
		q.Push(3, 0x33)

		p, ok := q.Pop()
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(Prediction{IssuedAt: 1, Value: 0x11}))

		p, ok = q.Pop()
		Expect(ok).To(BeTrue())
		Expect(p).To(Equal(Prediction{IssuedAt: 3, Value: 0x33}))

		Expect(q.Len()).To(Equal(0))
	})

	It("should report an empty queue instead of a zero prediction", func() {
		_, ok := q.Pop()

		Expect(ok).To(BeFalse())
	})

	It("should count pushes and pops", func() {
		q.Push(0, 1)
		q.Push(1, 2)
		q.Pop()
		q.Pop()

		pushed, popped := q.Counts()
		Expect(pushed).To(Equal(uint64(2)))
		Expect(popped).To(Equal(uint64(2)))
	})

	It("should panic when full", func() {
		q.Push(0, 1)
		q.Push(1, 2)

		Expect(func() { q.Push(2, 3) }).To(Panic())
	})

	It("should clear", func() {
		q.Push(0, 1)
		q.Clear()

		pushed, popped := q.Counts()
		Expect(q.Len()).To(Equal(0))
		Expect(pushed).To(BeZero())
		Expect(popped).To(BeZero())
	})
})
