package dut

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/memverify/signal"
)

func cycle(m *Memory, in signal.Inputs) byte {
	m.Drive(in)
	m.Posedge()

	return m.Outputs().ReadData
}

func write(data byte) signal.Inputs {
	return signal.Inputs{ResetN: true, WriteEnable: true, WriteData: data}
}

func read() signal.Inputs {
	return signal.Inputs{ResetN: true, ReadEnable: true}
}

func idle() signal.Inputs {
	return signal.Inputs{ResetN: true}
}

var _ = Describe("Memory", func() {
	var (
		m *Memory
	)

	BeforeEach(func() {
		m = MakeBuilder().Build("DUT")
		cycle(m, signal.Inputs{})
	})

	It("should read back after the address wraps around", func() {
		for i := 0; i < NumWords; i++ {
			cycle(m, write(byte(0x10+i)))
		}

		for i := 0; i < NumWords; i++ {
			Expect(cycle(m, read())).To(Equal(byte(0x10 + i)))
		}
	})

	It("should return the written value on a same-cycle write and read", func() {
		out := cycle(m, signal.Inputs{
			ResetN:      true,
			WriteEnable: true,
			ReadEnable:  true,
			WriteData:   0xAA,
		})

		Expect(out).To(Equal(byte(0xAA)))
	})

	It("should hold the output on cycles without read", func() {
		cycle(m, write(0x42))
		for i := 1; i < NumWords; i++ {
			cycle(m, idle())
		}

		Expect(cycle(m, read())).To(Equal(byte(0x42)))
		Expect(cycle(m, idle())).To(Equal(byte(0x42)))
		Expect(cycle(m, write(0x01))).To(Equal(byte(0x42)))
	})

	It("should hold the address at 0 in reset", func() {
		cycle(m, write(0x33))
		cycle(m, signal.Inputs{})
		cycle(m, signal.Inputs{})

		Expect(m.Outputs().ReadData).To(Equal(byte(0)))
		Expect(cycle(m, read())).To(Equal(byte(0x33)))
	})

	Context("with faults", func() {
		It("should return a stale value", func() {
			m = MakeBuilder().
				WithFault(Fault{Kind: FaultStaleOutput, Cycle: 2}).
				Build("DUT")

			cycle(m, signal.Inputs{})
			cycle(m, signal.Inputs{
				ResetN: true, WriteEnable: true, ReadEnable: true, WriteData: 0x11,
			})
			out := cycle(m, signal.Inputs{
				ResetN: true, WriteEnable: true, ReadEnable: true, WriteData: 0x22,
			})

			Expect(out).To(Equal(byte(0x11)))
		})

		It("should drop a write", func() {
			m = MakeBuilder().
				WithFault(Fault{Kind: FaultDropWrite, Cycle: 1}).
				Build("DUT")

			cycle(m, signal.Inputs{})
			cycle(m, write(0x77))
			for i := 1; i < NumWords; i++ {
				cycle(m, idle())
			}

			Expect(cycle(m, read())).To(Equal(byte(0)))
		})

		It("should flip bits", func() {
			m = MakeBuilder().
				WithFault(Fault{Kind: FaultBitFlip, Cycle: 1, Mask: 0x80}).
				Build("DUT")

			cycle(m, signal.Inputs{})
			out := cycle(m, signal.Inputs{
				ResetN: true, WriteEnable: true, ReadEnable: true, WriteData: 0x01,
			})

			Expect(out).To(Equal(byte(0x81)))
		})

		It("should skip an address increment", func() {
			m = MakeBuilder().
				WithFault(Fault{Kind: FaultStuckAddress, Cycle: 1}).
				Build("DUT")

			cycle(m, signal.Inputs{})
			cycle(m, write(0x01))
			cycle(m, write(0x02))

			for i := 1; i < NumWords; i++ {
				cycle(m, idle())
			}

			Expect(cycle(m, read())).To(Equal(byte(0x02)))
		})
	})
})
