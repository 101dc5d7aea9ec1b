package dut

import (
	"fmt"
	"strconv"
	"strings"
)

// FaultKind is the kind of misbehavior that a Fault injects.
type FaultKind int

// The supported fault kinds.
const (
	FaultNone FaultKind = iota

	// FaultStaleOutput keeps the previous output value on a read.
	FaultStaleOutput

	// FaultStuckAddress skips one address increment.
	FaultStuckAddress

	// FaultDropWrite ignores one write.
	FaultDropWrite

	// FaultBitFlip flips bits of the value read.
	FaultBitFlip
)

var faultNames = map[FaultKind]string{
	FaultNone:         "none",
	FaultStaleOutput:  "stale",
	FaultStuckAddress: "stuck",
	FaultDropWrite:    "dropwrite",
	FaultBitFlip:      "bitflip",
}

func (k FaultKind) String() string {
	if name, found := faultNames[k]; found {
		return name
	}

	return fmt.Sprintf("FaultKind(%d)", int(k))
}

// A Fault makes the device misbehave at exactly one clock edge.
type Fault struct {
	Kind FaultKind

	// Cycle is the index of the clock edge, counted from 0, where the fault
	// fires.
	Cycle uint64

	// Mask is the bit mask XORed into the read value by FaultBitFlip.
	Mask byte
}

func (f Fault) String() string {
	if f.Kind == FaultBitFlip {
		return fmt.Sprintf("%s@%d:0x%02X", f.Kind, f.Cycle, f.Mask)
	}

	return fmt.Sprintf("%s@%d", f.Kind, f.Cycle)
}

// ParseFault parses a fault description in the form "kind@cycle", or
// "bitflip@cycle:mask" for bit flips. For example, "stale@20" or
// "bitflip@7:0x80".
func ParseFault(s string) (Fault, error) {
	kindStr, rest, found := strings.Cut(strings.TrimSpace(s), "@")
	if !found {
		return Fault{}, fmt.Errorf("fault %q must be in the form kind@cycle", s)
	}

	kind := FaultNone
	for k, name := range faultNames {
		if name == strings.ToLower(kindStr) {
			kind = k
		}
	}

	if kind == FaultNone {
		return Fault{}, fmt.Errorf("unknown fault kind %q", kindStr)
	}

	cycleStr, maskStr, hasMask := strings.Cut(rest, ":")

	cycle, err := strconv.ParseUint(cycleStr, 10, 64)
	if err != nil {
		return Fault{}, fmt.Errorf("invalid fault cycle %q: %w", cycleStr, err)
	}

	f := Fault{Kind: kind, Cycle: cycle}

	switch {
	case kind == FaultBitFlip && hasMask:
		mask, err := strconv.ParseUint(maskStr, 0, 8)
		if err != nil {
			return Fault{}, fmt.Errorf("invalid bit flip mask %q: %w", maskStr, err)
		}

		f.Mask = byte(mask)
	case kind == FaultBitFlip:
		f.Mask = 0x01
	case hasMask:
		return Fault{}, fmt.Errorf("fault %s does not take a mask", kind)
	}

	return f, nil
}
