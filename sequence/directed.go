package sequence

import (
	"fmt"

	"github.com/sarchlab/memverify/txn"
)

// NumWords is the number of words the address pointer cycles through.
const NumWords = 16

// A Directed provider replays a fixed list of transactions.
type Directed struct {
	txs  []txn.Transaction
	next int
}

// NewDirected creates a provider that replays the transactions in order.
func NewDirected(txs ...txn.Transaction) *Directed {
	return &Directed{txs: append([]txn.Transaction(nil), txs...)}
}

// Next returns the next transaction of the list.
func (d *Directed) Next() (txn.Transaction, bool) {
	if d.next >= len(d.txs) {
		return txn.Transaction{}, false
	}

	tx := d.txs[d.next]
	d.next++

	return tx, true
}

// Restart rewinds the provider to the first transaction.
func (d *Directed) Restart() {
	d.next = 0
}

// Len returns the number of transactions in the list.
func (d *Directed) Len() int {
	return len(d.txs)
}

// Transactions returns a copy of the list.
func (d *Directed) Transactions() []txn.Transaction {
	return append([]txn.Transaction(nil), d.txs...)
}

func idles(n int) []txn.Transaction {
	txs := make([]txn.Transaction, n)
	for i := range txs {
		txs[i] = txn.Idle()
	}

	return txs
}

// WriteThenReadBack writes the values to consecutive addresses starting from
// the current address, idles until the address pointer wraps back to the
// first written word, and reads the words back in order.
func WriteThenReadBack(values ...byte) *Directed {
	var txs []txn.Transaction

	for _, v := range values {
		txs = append(txs, txn.Write(v))
	}

	txs = append(txs, idles((NumWords-len(values)%NumWords)%NumWords)...)

	for range values {
		txs = append(txs, txn.Read())
	}

	return NewDirected(txs...)
}

// FillThenReadBack writes the values 0 to n-1 and reads them back. With n=16
// every word is written and read exactly once.
func FillThenReadBack(n int) *Directed {
	values := make([]byte, n)
	for i := range values {
		values[i] = byte(i)
	}

	return WriteThenReadBack(values...)
}

// WriteThenRead writes a value and reads it back once the address pointer has
// wrapped around to the written word.
func WriteThenRead(value byte) *Directed {
	return WriteThenReadBack(value)
}

// WriteReadPairs writes and reads back each value in turn. Every pair covers
// one address more than a full wrap, so the pairs hit distinct addresses.
func WriteReadPairs(values ...byte) *Directed {
	var txs []txn.Transaction

	for _, v := range values {
		txs = append(txs, txn.Write(v))
		txs = append(txs, idles(NumWords-1)...)
		txs = append(txs, txn.Read())
	}

	return NewDirected(txs...)
}

// WriteReadSameTick writes and reads every word in the same tick. Each read
// must return the value written in that tick.
func WriteReadSameTick(values ...byte) *Directed {
	txs := make([]txn.Transaction, 0, len(values))
	for _, v := range values {
		txs = append(txs, txn.WriteRead(v))
	}

	return NewDirected(txs...)
}

// WalkingOnes writes each single-bit pattern and reads them back.
func WalkingOnes() *Directed {
	values := make([]byte, 8)
	for i := range values {
		values[i] = 1 << i
	}

	return WriteThenReadBack(values...)
}

// Checkerboard fills the memory with alternating 0x55 and 0xAA and reads it
// back.
func Checkerboard() *Directed {
	values := make([]byte, NumWords)
	for i := range values {
		values[i] = 0x55
		if i%2 == 1 {
			values[i] = 0xAA
		}
	}

	return WriteThenReadBack(values...)
}

// Patterns lists the names of the built-in directed patterns.
func Patterns() []string {
	return []string{
		"checkerboard",
		"fill-readback",
		"walking-ones",
		"write-read",
		"write-read-pairs",
		"write-read-same-tick",
	}
}

// Pattern creates a built-in directed pattern by name.
func Pattern(name string) (*Directed, error) {
	switch name {
	case "checkerboard":
		return Checkerboard(), nil
	case "fill-readback":
		return FillThenReadBack(NumWords), nil
	case "walking-ones":
		return WalkingOnes(), nil
	case "write-read":
		return WriteThenRead(0xAA), nil
	case "write-read-pairs":
		return WriteReadPairs(0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88), nil
	case "write-read-same-tick":
		return WriteReadSameTick(0xDE, 0xAD, 0xBE, 0xEF), nil
	default:
		return nil, fmt.Errorf("unknown directed pattern %q, known patterns: %v",
			name, Patterns())
	}
}
