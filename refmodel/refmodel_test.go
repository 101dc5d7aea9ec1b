package refmodel

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/txn"
)

type pushed struct {
	tick  sim.VTimeInCycle
	value byte
}

type sliceSink struct {
	items []pushed
}

func (s *sliceSink) Push(tick sim.VTimeInCycle, value byte) {
	s.items = append(s.items, pushed{tick: tick, value: value})
}

var _ = Describe("Model", func() {
	var (
		sink  *sliceSink
		model *Model
		tick  sim.VTimeInCycle
	)

	apply := func(tx txn.Transaction) {
		model.Apply(tick, tx)
		tick++
	}

	BeforeEach(func() {
		sink = &sliceSink{}
		model = NewModel("TB.Model", sink)
		tick = 0
	})

	It("should start from the all-zero state", func() {
		state := model.State()

		Expect(state.Address).To(Equal(uint8(0)))
		Expect(state.Memory).To(Equal([NumWords]byte{}))
		Expect(state.PendingOutput).To(BeNil())
	})

	It("should panic without a sink", func() {
		Expect(func() { NewModel("TB.Model", nil) }).To(Panic())
	})

	It("should advance the address once per tick regardless of activity",
		func() {
			txs := []txn.Transaction{
				txn.Idle(), txn.Write(1), txn.Read(), txn.WriteRead(2),
			}

			for i := 0; i < 40; i++ {
				Expect(model.State().Address).To(Equal(uint8(i % NumWords)))
				apply(txs[i%len(txs)])
			}
		})

	It("should write to the current address", func() {
		apply(txn.Write(0xAA))
		apply(txn.Idle())
		apply(txn.Write(0xBB))

		state := model.State()
		Expect(state.Memory[0]).To(Equal(byte(0xAA)))
		Expect(state.Memory[1]).To(Equal(byte(0)))
		Expect(state.Memory[2]).To(Equal(byte(0xBB)))
		Expect(sink.items).To(BeEmpty())
	})

	It("should predict the word at the address of the read", func() {
		for i := 0; i < NumWords; i++ {
			apply(txn.Write(byte(i + 0x10)))
		}

		apply(txn.Idle())
		apply(txn.Read())

		Expect(sink.items).To(Equal([]pushed{{tick: 17, value: 0x11}}))
		Expect(*model.State().PendingOutput).To(Equal(byte(0x11)))
	})

	It("should let a write be seen by a read of the same tick", func() {
		apply(txn.WriteRead(0x5A))

		Expect(sink.items).To(Equal([]pushed{{tick: 0, value: 0x5A}}))
	})

	It("should keep the pending output on ticks without a read", func() {
		apply(txn.WriteRead(0x33))
		apply(txn.Write(0x44))
		apply(txn.Idle())

		Expect(*model.State().PendingOutput).To(Equal(byte(0x33)))
		Expect(sink.items).To(HaveLen(1))
	})

	It("should hold the address at 0 under reset", func() {
		apply(txn.Write(0x01))
		apply(txn.WriteRead(0x02))

		model.HoldReset(tick)
		tick++
		model.HoldReset(tick)
		tick++

		state := model.State()
		Expect(state.Address).To(Equal(uint8(0)))
		Expect(state.PendingOutput).To(BeNil())
		Expect(state.Memory[0]).To(Equal(byte(0x01)))
		Expect(state.Memory[1]).To(Equal(byte(0x02)))
	})

	It("should read memory[0] right after reset", func() {
		apply(txn.Write(0x77))
		apply(txn.Idle())
		apply(txn.Idle())

		model.HoldReset(tick)
		tick++
		apply(txn.Read())

		Expect(sink.items).To(Equal([]pushed{{tick: 4, value: 0x77}}))
	})

	It("should return to the all-zero state on Reset", func() {
		apply(txn.WriteRead(0x12))

		model.Reset()

		state := model.State()
		Expect(state.Address).To(Equal(uint8(0)))
		Expect(state.Memory).To(Equal([NumWords]byte{}))
		Expect(state.PendingOutput).To(BeNil())
	})

	It("should return a copy of the state", func() {
		apply(txn.WriteRead(0x12))

		state := model.State()
		*state.PendingOutput = 0xFF
		state.Memory[0] = 0xFF

		Expect(*model.State().PendingOutput).To(Equal(byte(0x12)))
		Expect(model.State().Memory[0]).To(Equal(byte(0x12)))
	})

	It("should invoke hooks", func() {
		var positions []string

		model.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			positions = append(positions, ctx.Pos.Name)

			if ctx.Pos == HookPosPredict {
				Expect(ctx.Item).To(Equal(byte(0x12)))
				Expect(ctx.Detail).To(Equal(uint8(0)))
				Expect(ctx.Now).To(Equal(sim.VTimeInCycle(0)))
			}
		}))

		apply(txn.WriteRead(0x12))
		apply(txn.Idle())

		Expect(positions).To(Equal([]string{"Predict", "Apply", "Apply"}))
	})
})
