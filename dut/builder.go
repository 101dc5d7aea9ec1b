package dut

import "github.com/sarchlab/memverify/sim"

// Builder can build Memory devices.
type Builder struct {
	faults []Fault
}

// MakeBuilder creates a new Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithFault injects a fault into the device.
func (b Builder) WithFault(f Fault) Builder {
	b.faults = append(append([]Fault(nil), b.faults...), f)
	return b
}

// WithFaults injects several faults into the device.
func (b Builder) WithFaults(faults ...Fault) Builder {
	for _, f := range faults {
		b = b.WithFault(f)
	}

	return b
}

// Build creates a device with the given name.
func (b Builder) Build(name string) *Memory {
	sim.NameMustBeValid(name)

	m := &Memory{
		name:   name,
		faults: make([]Fault, 0, len(b.faults)),
	}

	for _, f := range b.faults {
		if f.Kind != FaultNone {
			m.faults = append(m.faults, f)
		}
	}

	return m
}
