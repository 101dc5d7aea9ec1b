// Package sequence produces the transactions that a testbench drives.
package sequence

import "github.com/sarchlab/memverify/txn"

// A Provider produces transactions one at a time. Next returns false once the
// provider has no more transactions. Providers are not safe for concurrent
// use.
type Provider interface {
	Next() (txn.Transaction, bool)
}

// A Restarter is a provider that can go back to its first transaction.
type Restarter interface {
	Provider
	Restart()
}

type limited struct {
	p         Provider
	remaining uint64
}

// Limit caps a provider to at most n transactions.
func Limit(p Provider, n uint64) Provider {
	return &limited{p: p, remaining: n}
}

func (l *limited) Next() (txn.Transaction, bool) {
	if l.remaining == 0 {
		return txn.Transaction{}, false
	}

	tx, ok := l.p.Next()
	if !ok {
		l.remaining = 0
		return txn.Transaction{}, false
	}

	l.remaining--

	return tx, true
}

type concatenated struct {
	providers []Provider
}

// Concat chains providers. Each provider runs until it is exhausted before
// the next one starts.
func Concat(providers ...Provider) Provider {
	return &concatenated{providers: providers}
}

func (c *concatenated) Next() (txn.Transaction, bool) {
	for len(c.providers) > 0 {
		tx, ok := c.providers[0].Next()
		if ok {
			return tx, true
		}

		c.providers = c.providers[1:]
	}

	return txn.Transaction{}, false
}

// Collect drains a provider into a slice. It must not be called on an
// infinite provider.
func Collect(p Provider) []txn.Transaction {
	var txs []txn.Transaction

	for {
		tx, ok := p.Next()
		if !ok {
			return txs
		}

		txs = append(txs, tx)
	}
}
