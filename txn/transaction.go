// Package txn defines the unit of stimulus and observation exchanged between
// the sequencer, the driver, the monitor and the reference model.
package txn

import "fmt"

// Transaction is the intent or the observation of exactly one clock tick.
// Transactions are values; once issued they are never modified.
type Transaction struct {
	Write bool
	Read  bool
	Data  byte
}

// Idle returns a transaction that neither reads nor writes.
func Idle() Transaction {
	return Transaction{}
}

// Write returns a transaction that writes data at the current address.
func Write(data byte) Transaction {
	return Transaction{Write: true, Data: data}
}

// Read returns a transaction that reads the current address.
func Read() Transaction {
	return Transaction{Read: true}
}

// WriteRead returns a transaction that writes data and reads the same address
// in the same tick. The device is write-first, so the read returns data.
func WriteRead(data byte) Transaction {
	return Transaction{Write: true, Read: true, Data: data}
}

// IsIdle returns true if the transaction neither reads nor writes.
func (t Transaction) IsIdle() bool {
	return !t.Write && !t.Read
}

func (t Transaction) String() string {
	switch {
	case t.Write && t.Read:
		return fmt.Sprintf("WR(0x%02X)", t.Data)
	case t.Write:
		return fmt.Sprintf("W(0x%02X)", t.Data)
	case t.Read:
		return "R"
	default:
		return "IDLE"
	}
}
