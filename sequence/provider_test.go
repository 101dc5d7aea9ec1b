package sequence

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/memverify/txn"
)

var _ = Describe("Limit", func() {
	var (
		mockCtrl *gomock.Controller
		p        *MockProvider
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		p = NewMockProvider(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should stop after n transactions without pulling more", func() {
		p.EXPECT().Next().Return(txn.Read(), true).Times(2)

		txs := Collect(Limit(p, 2))

		Expect(txs).To(Equal([]txn.Transaction{txn.Read(), txn.Read()}))
	})

	It("should stop early if the provider runs out", func() {
		p.EXPECT().Next().Return(txn.Write(1), true)
		p.EXPECT().Next().Return(txn.Transaction{}, false)

		l := Limit(p, 5)

		Expect(Collect(l)).To(Equal([]txn.Transaction{txn.Write(1)}))

		_, ok := l.Next()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Concat", func() {
	It("should run the providers one after another", func() {
		c := Concat(
			NewDirected(txn.Write(1)),
			NewDirected(),
			NewDirected(txn.Read(), txn.Idle()),
		)

		Expect(Collect(c)).To(Equal([]txn.Transaction{
			txn.Write(1), txn.Read(), txn.Idle(),
		}))
	})
})
