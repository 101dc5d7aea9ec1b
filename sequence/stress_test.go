package sequence

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memverify/txn"
)

var _ = Describe("Stress", func() {
	It("should be reproducible for a seed", func() {
		a := Collect(Limit(NewStress(DefaultStressConstraints(), 42), 1000))
		b := Collect(Limit(NewStress(DefaultStressConstraints(), 42), 1000))
		c := Collect(Limit(NewStress(DefaultStressConstraints(), 43), 1000))

		Expect(a).To(Equal(b))
		Expect(a).NotTo(Equal(c))
		Expect(NewStress(DefaultStressConstraints(), 42).Seed()).
			To(Equal(int64(42)))
	})

	It("should repeat itself after a restart", func() {
		s := NewStress(DefaultStressConstraints(), 42)

		first := Collect(Limit(s, 200))
		s.Restart()

		Expect(Collect(Limit(s, 200))).To(Equal(first))
		Expect(s.Constraints()).To(Equal(DefaultStressConstraints()))
	})

	It("should respect the constraints", func() {
		constraints := StressConstraints{
			WriteProbability: 1,
			DataMin:          0x10,
			DataMax:          0x1F,
		}

		for _, tx := range Collect(Limit(NewStress(constraints, 1), 500)) {
			Expect(tx.Write).To(BeTrue())
			Expect(tx.Read).To(BeFalse())
			Expect(tx.Data).To(BeNumerically(">=", 0x10))
			Expect(tx.Data).To(BeNumerically("<=", 0x1F))
		}
	})

	It("should produce a mix of kinds", func() {
		counts := map[string]int{}

		for _, tx := range Collect(Limit(NewStress(DefaultStressConstraints(), 7), 2000)) {
			switch {
			case tx.Write:
				counts["write"]++
			case tx.Read:
				counts["read"]++
			default:
				counts["idle"]++
			}
		}

		Expect(counts["write"]).To(BeNumerically("~", 800, 150))
		Expect(counts["read"]).To(BeNumerically("~", 800, 150))
		Expect(counts["idle"]).To(BeNumerically("~", 400, 150))
	})

	It("should never run out", func() {
		s := NewStress(DefaultStressConstraints(), 3)

		for i := 0; i < 100; i++ {
			_, ok := s.Next()
			Expect(ok).To(BeTrue())
		}
	})

	DescribeTable("invalid constraints",
		func(c StressConstraints) {
			Expect(c.Validate()).NotTo(Succeed())
			Expect(func() { NewStress(c, 0) }).To(Panic())
		},
		Entry("sum below one", StressConstraints{
			WriteProbability: 0.5, DataMax: 0xFF}),
		Entry("negative", StressConstraints{
			WriteProbability: 1.5, ReadProbability: -0.5, DataMax: 0xFF}),
		Entry("empty data range", StressConstraints{
			IdleProbability: 1, DataMin: 2, DataMax: 1}),
	)
})

var _ = Describe("Sequencer", func() {
	It("should deliver every transaction and close the channel", func() {
		s := NewSequencer("TB.Sequencer")
		out := make(chan txn.Transaction, 4)

		err := s.Run(context.Background(),
			NewDirected(txn.Write(1), txn.Read()), out)

		Expect(err).NotTo(HaveOccurred())
		Expect(<-out).To(Equal(txn.Write(1)))
		Expect(<-out).To(Equal(txn.Read()))
		Eventually(out).Should(BeClosed())
		Expect(s.NumIssued()).To(Equal(uint64(2)))
	})

	It("should stop when the context is cancelled", func() {
		s := NewSequencer("TB.Sequencer")
		out := make(chan txn.Transaction)
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error)
		go func() {
			done <- s.Run(ctx, NewStress(DefaultStressConstraints(), 1), out)
		}()

		<-out
		<-out
		cancel()

		Eventually(done).Should(Receive(MatchError(context.Canceled)))
		Expect(s.NumIssued()).To(BeNumerically(">=", 2))
	})
})
