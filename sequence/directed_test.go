package sequence

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memverify/txn"
)

// addressOf returns, for every transaction of a sequence started at address
// 0, the address it hits.
func addressOf(i int) int {
	return i % NumWords
}

var _ = Describe("Directed", func() {
	It("should replay and restart", func() {
		d := NewDirected(txn.Write(1), txn.Read())

		Expect(Collect(d)).To(HaveLen(2))

		_, ok := d.Next()
		Expect(ok).To(BeFalse())

		d.Restart()
		tx, ok := d.Next()
		Expect(ok).To(BeTrue())
		Expect(tx).To(Equal(txn.Write(1)))
	})

	It("should not share the list with the caller", func() {
		txs := []txn.Transaction{txn.Write(1)}
		d := NewDirected(txs...)
		txs[0] = txn.Read()

		Expect(d.Transactions()).To(Equal([]txn.Transaction{txn.Write(1)}))
	})

	It("should fill then read back every word", func() {
		txs := FillThenReadBack(NumWords).Transactions()

		Expect(txs).To(HaveLen(32))

		for i := 0; i < NumWords; i++ {
			Expect(txs[i]).To(Equal(txn.Write(byte(i))))
			Expect(txs[NumWords+i]).To(Equal(txn.Read()))
		}
	})

	It("should idle until the address wraps before reading back", func() {
		txs := WriteThenReadBack(7, 8, 9).Transactions()

		Expect(txs).To(HaveLen(3 + 13 + 3))
		Expect(txs[16]).To(Equal(txn.Read()))
		Expect(addressOf(16)).To(Equal(0))
		Expect(addressOf(18)).To(Equal(2))
	})

	It("should read each write back at its address", func() {
		values := []byte{0x11, 0x22, 0x33}
		txs := WriteReadPairs(values...).Transactions()

		Expect(txs).To(HaveLen(3 * (NumWords + 1)))

		written := map[int]byte{}

		for i, tx := range txs {
			if tx.Write {
				written[addressOf(i)] = tx.Data
			}

			if tx.Read {
				_, found := written[addressOf(i)]
				Expect(found).To(BeTrue())
			}
		}

		Expect(written).To(HaveLen(3))
	})

	It("should write and read in the same tick", func() {
		Expect(WriteReadSameTick(1, 2).Transactions()).To(Equal(
			[]txn.Transaction{txn.WriteRead(1), txn.WriteRead(2)}))
	})

	It("should walk a single one through the byte", func() {
		txs := WalkingOnes().Transactions()

		for i := 0; i < 8; i++ {
			Expect(txs[i]).To(Equal(txn.Write(1 << i)))
		}
	})

	It("should create the built-in patterns by name", func() {
		for _, name := range Patterns() {
			d, err := Pattern(name)

			Expect(err).NotTo(HaveOccurred())
			Expect(d.Len()).To(BeNumerically(">", 0))
		}

		_, err := Pattern("galloping")
		Expect(err).To(HaveOccurred())
	})
})
