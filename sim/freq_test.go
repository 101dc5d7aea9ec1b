package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should get period", func() {
		var f = 1 * GHz
		Expect(f.Period()).To(BeNumerically("==", 1e-9))
	})

	It("should panic on zero frequency", func() {
		var f Freq
		Expect(func() { f.Period() }).To(Panic())
	})

	It("should convert a cycle to time", func() {
		var f = 100 * MHz
		Expect(f.Time(25)).To(BeNumerically("~", 250e-9, 1e-15))
	})

	It("should convert a time to cycle", func() {
		var f = 1 * GHz
		Expect(f.Cycle(102.000000001)).To(Equal(VTimeInCycle(102000000001)))
	})

	It("should get the half tick", func() {
		var f = 1 * GHz
		Expect(f.HalfTick(3)).To(BeNumerically("~", 3.5e-9, 1e-15))
	})
})
