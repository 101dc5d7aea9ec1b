package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ComponentBase", func() {

	var (
		component *ComponentBase
	)

	BeforeEach(func() {
		component = NewComponentBase("TB.Comp")
	})

	It("should set and get name", func() {
		Expect(component.Name()).To(Equal("TB.Comp"))
	})

	It("should reject invalid names", func() {
		Expect(func() { NewComponentBase("") }).To(Panic())
		Expect(func() { NewComponentBase("TB Comp") }).To(Panic())
		Expect(func() { NewComponentBase("TB..Comp") }).To(Panic())
	})
})
