// Package signal defines the clocked signal interface between the testbench
// and the device under test.
package signal

import (
	"fmt"
	"sync"
)

// Inputs are the signals that the testbench drives into the DUT.
type Inputs struct {
	// ResetN is the active-low reset. The device is in reset when ResetN is
	// false.
	ResetN      bool
	WriteEnable bool
	ReadEnable  bool
	WriteData   byte
}

// InReset tells if the inputs hold the device in reset.
func (in Inputs) InReset() bool {
	return !in.ResetN
}

func (in Inputs) String() string {
	return fmt.Sprintf("rst_n=%t we=%t re=%t wdata=0x%02X",
		in.ResetN, in.WriteEnable, in.ReadEnable, in.WriteData)
}

// Outputs are the signals that the DUT presents to the testbench.
type Outputs struct {
	ReadData byte
}

// A DUT is a device that can be driven through its clocked signal interface.
// The testbench never looks into the device beyond this interface.
type DUT interface {
	// Drive asserts the inputs for the current cycle.
	Drive(in Inputs)

	// Posedge applies the rising clock edge. Registers update here.
	Posedge()

	// Outputs returns the current value of the output signals.
	Outputs() Outputs
}

// A Bus connects the testbench to a DUT. It remembers the inputs driven in the
// current cycle so that they can be sampled together with the outputs. All
// methods are safe to call from different goroutines.
type Bus struct {
	lock   sync.Mutex
	dut    DUT
	driven Inputs
}

// NewBus creates a Bus connected to the DUT.
func NewBus(dut DUT) *Bus {
	if dut == nil {
		panic("bus requires a DUT")
	}

	return &Bus{dut: dut}
}

// Drive asserts the inputs on the DUT.
func (b *Bus) Drive(in Inputs) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.driven = in
	b.dut.Drive(in)
}

// Posedge applies the rising clock edge to the DUT.
func (b *Bus) Posedge() {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.dut.Posedge()
}

// Sample returns the inputs driven in this cycle and the current outputs.
func (b *Bus) Sample() (Inputs, Outputs) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.driven, b.dut.Outputs()
}
