package monitor

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/timing"
	"github.com/sarchlab/memverify/txn"
)

var _ = Describe("Monitor", func() {
	var (
		mockCtrl   *gomock.Controller
		sampler    *MockSampler
		subscriber *MockSubscriber
		clock      *timing.Clock
		m          *Monitor
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		sampler = NewMockSampler(mockCtrl)
		subscriber = NewMockSubscriber(mockCtrl)
		clock = timing.NewClock(1 * sim.GHz)
		m = NewMonitor("TB.Monitor", clock, sampler)
		m.Subscribe(subscriber)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should derive the observed transaction from the signals", func() {
		in := signal.Inputs{ResetN: true, ReadEnable: true, WriteData: 0x12}
		sampler.EXPECT().Sample().Return(in, signal.Outputs{ReadData: 0xAA})
		subscriber.EXPECT().Notify(Observation{
			Tick:   5,
			Tx:     txn.Transaction{Read: true, Data: 0xAA},
			Inputs: in,
		}).Return(nil)

		Expect(m.Sample(5)).To(Succeed())
		Expect(m.NumSampled()).To(Equal(uint64(1)))
	})

	It("should notify subscribers in order and stop at the first error",
		func() {
			second := NewMockSubscriber(mockCtrl)
			third := NewMockSubscriber(mockCtrl)
			m.Subscribe(second)
			m.Subscribe(third)

			failure := errors.New("failure")

			sampler.EXPECT().Sample().
				Return(signal.Inputs{ResetN: true}, signal.Outputs{})
			first := subscriber.EXPECT().Notify(gomock.Any()).Return(nil)
			second.EXPECT().Notify(gomock.Any()).Return(failure).After(first)

			Expect(m.Sample(0)).To(MatchError(failure))
		})

	It("should emit an observation every tick", func() {
		clock.SetTickBudget(4)

		sampler.EXPECT().Sample().
			Return(signal.Inputs{ResetN: true}, signal.Outputs{ReadData: 3}).
			Times(4)

		var ticks []sim.VTimeInCycle
		subscriber.EXPECT().Notify(gomock.Any()).
			DoAndReturn(func(obs Observation) error {
				ticks = append(ticks, obs.Tick)
				return nil
			}).Times(4)

		done := make(chan error)
		go func() { done <- m.Run() }()

		clock.Start()

		Eventually(done).Should(Receive(BeNil()))
		Expect(ticks).To(Equal([]sim.VTimeInCycle{0, 1, 2, 3}))
	})

	It("should abort the clock when a subscriber fails", func() {
		failure := errors.New("underflow")

		sampler.EXPECT().Sample().
			Return(signal.Inputs{ResetN: true}, signal.Outputs{}).
			Times(2)
		subscriber.EXPECT().Notify(gomock.Any()).Return(nil)
		subscriber.EXPECT().Notify(gomock.Any()).Return(failure)

		done := make(chan error)
		go func() { done <- m.Run() }()

		clock.Start()

		Eventually(done).Should(Receive(MatchError(failure)))
		Expect(clock.Err()).To(MatchError(failure))
		Eventually(clock.Done()).Should(BeClosed())
	})

	It("should invoke the sample hook", func() {
		var items []interface{}
		m.AcceptHook(sim.HookFunc(func(ctx sim.HookCtx) {
			Expect(ctx.Pos).To(Equal(HookPosSample))
			items = append(items, ctx.Item)
		}))

		sampler.EXPECT().Sample().
			Return(signal.Inputs{ResetN: true, WriteEnable: true},
				signal.Outputs{ReadData: 9})
		subscriber.EXPECT().Notify(gomock.Any()).Return(nil)

		Expect(m.Sample(2)).To(Succeed())
		Expect(items).To(HaveLen(1))
		Expect(items[0].(Observation).Tx).
			To(Equal(txn.Transaction{Write: true, Data: 9}))
	})
})
