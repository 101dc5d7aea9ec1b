// Package dut provides a behavioral model of the auto-incrementing memory
// device, so that the testbench can run without an HDL simulator.
package dut

import (
	"github.com/sarchlab/memverify/signal"
)

// NumWords is the number of byte-wide words in the device.
const NumWords = 16

// A Memory is a clocked 16 x 8-bit memory with an address pointer that
// advances on every clock edge out of reset. A read registers the addressed
// word into the output register at the edge; the output holds its value on
// cycles without a read. Writes take effect before the read of the same edge.
type Memory struct {
	name string

	in       signal.Inputs
	address  uint8
	storage  [NumWords]byte
	readData byte

	cycle  uint64
	faults []Fault
}

// Name returns the name of the device.
func (m *Memory) Name() string {
	return m.name
}

// Drive latches the inputs for the coming edge.
func (m *Memory) Drive(in signal.Inputs) {
	m.in = in
}

// Outputs returns the output register.
func (m *Memory) Outputs() signal.Outputs {
	return signal.Outputs{ReadData: m.readData}
}

// Posedge updates the registers of the device.
func (m *Memory) Posedge() {
	defer func() { m.cycle++ }()

	if m.in.InReset() {
		m.address = 0
		m.readData = 0

		return
	}

	if m.in.WriteEnable && !m.faultAt(FaultDropWrite) {
		m.storage[m.address] = m.in.WriteData
	}

	if m.in.ReadEnable {
		m.readData = m.read()
	}

	if !m.faultAt(FaultStuckAddress) {
		m.address = (m.address + 1) % NumWords
	}
}

func (m *Memory) read() byte {
	if m.faultAt(FaultStaleOutput) {
		return m.readData
	}

	value := m.storage[m.address]

	for _, f := range m.faults {
		if f.Kind == FaultBitFlip && f.Cycle == m.cycle {
			value ^= f.Mask
		}
	}

	return value
}

func (m *Memory) faultAt(kind FaultKind) bool {
	for _, f := range m.faults {
		if f.Kind == kind && f.Cycle == m.cycle {
			return true
		}
	}

	return false
}
