package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("HookableBase", func() {
	var (
		h   *HookableBase
		pos = &HookPos{Name: "Test"}
	)

	BeforeEach(func() {
		h = NewHookableBase()
	})

	It("should invoke hooks in registration order", func() {
		var calls []string
		h.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "first")
			Expect(ctx.Pos).To(BeIdenticalTo(pos))
		}))
		h.AcceptHook(HookFunc(func(ctx HookCtx) {
			calls = append(calls, "second")
		}))

		h.InvokeHook(HookCtx{Pos: pos, Now: 3})

		Expect(h.NumHooks()).To(Equal(2))
		Expect(calls).To(Equal([]string{"first", "second"}))
	})

	It("should not accept the same hook twice", func() {
		hook := &countingHook{}
		h.AcceptHook(hook)

		Expect(func() { h.AcceptHook(hook) }).To(Panic())
	})
})

type countingHook struct {
	count int
}

func (h *countingHook) Func(_ HookCtx) {
	h.count++
}
