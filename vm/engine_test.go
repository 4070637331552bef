package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"
)

type captureHook struct {
	events []OutcomeEvent
}

func (h *captureHook) Func(ctx HookCtx) {
	if ctx.Pos != HookPosOutcome {
		return
	}

	h.events = append(h.events, ctx.Item.(OutcomeEvent))
}

type resetCountHook struct {
	count int
}

func (h *resetCountHook) Func(ctx HookCtx) {
	if ctx.Pos == HookPosReset {
		h.count++
	}
}

var _ = Describe("Engine", func() {
	var (
		mockCtrl *gomock.Controller
		policy   *MockPolicy
		engine   *Engine
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		policy = NewMockPolicy(mockCtrl)
		policy.EXPECT().Name().Return("Mock").AnyTimes()

		var err error
		engine, err = NewEngine(Config{PageSizeKB: 4, FrameCount: 3}, policy)
		Expect(err).To(BeNil())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should reject non-positive configurations", func() {
		_, err := NewEngine(Config{PageSizeKB: 0, FrameCount: 3}, policy)
		Expect(err).NotTo(BeNil())

		_, err = NewEngine(Config{PageSizeKB: 4, FrameCount: -1}, policy)
		Expect(err).NotTo(BeNil())
	})

	It("should reject negative page numbers without mutating state", func() {
		_, err := engine.HandleAccess(AccessEvent{PID: 1, VPN: -4})

		Expect(err).NotTo(BeNil())
		Expect(engine.Now()).To(Equal(uint64(0)))
		Expect(engine.Stats().Accesses).To(Equal(uint64(0)))
	})

	It("should fault into free frames until the pool fills", func() {
		for i, vpn := range []int64{1, 2, 3} {
			out, err := engine.HandleAccess(AccessEvent{PID: 1, VPN: vpn})

			Expect(err).To(BeNil())
			Expect(out.Kind).To(Equal(FaultNoEviction))
			Expect(out.FrameIndex).To(Equal(i))
			Expect(out.Time).To(Equal(uint64(i + 1)))
		}

		Expect(engine.Stats().Faults).To(Equal(uint64(3)))
	})

	It("should hit on resident pages without consulting the policy", func() {
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})

		out, err := engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})

		Expect(err).To(BeNil())
		Expect(out.Kind).To(Equal(Hit))
		Expect(out.FrameIndex).To(Equal(0))
		Expect(engine.Stats().Hits).To(Equal(uint64(1)))
	})

	It("should update recency on hit", func() {
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})

		entry, _ := engine.table.Lookup(Page{PID: 1, VPN: 1})
		Expect(entry.LastAccessTime).To(Equal(uint64(2)))
		Expect(entry.AccessCount).To(Equal(uint64(2)))

		Expect(engine.Frames()[0].LastAccessTime).To(Equal(uint64(2)))
	})

	It("should evict the policy's victim when the pool is full", func() {
		policy.EXPECT().
			SelectVictim(gomock.Len(3), gomock.Nil()).
			Return(0, "oldest load time (t=1)")

		for _, vpn := range []int64{1, 2, 3} {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: vpn})
		}

		out, err := engine.HandleAccess(AccessEvent{PID: 1, VPN: 4})

		Expect(err).To(BeNil())
		Expect(out.Kind).To(Equal(FaultWithEviction))
		Expect(out.FrameIndex).To(Equal(0))
		Expect(out.EvictedValid).To(BeTrue())
		Expect(out.Evicted).To(Equal(Page{PID: 1, VPN: 1}))
		Expect(out.Reason).To(Equal("Mock: oldest load time (t=1)"))

		entry, found := engine.table.Lookup(Page{PID: 1, VPN: 1})
		Expect(found).To(BeTrue())
		Expect(entry.Resident).To(BeFalse())
	})

	It("should pass the lookahead hint through to the policy", func() {
		future := []Page{{PID: 1, VPN: 2}, {PID: 1, VPN: 3}}

		policy.EXPECT().
			SelectVictim(gomock.Any(), gomock.Eq(future)).
			Return(1, "never referenced again")

		for _, vpn := range []int64{1, 2, 3} {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: vpn})
		}

		engine.HandleAccess(AccessEvent{PID: 1, VPN: 4, Future: future})
	})

	It("should panic when the policy returns a bogus frame", func() {
		policy.EXPECT().
			SelectVictim(gomock.Any(), gomock.Any()).
			Return(99, "nonsense")

		for _, vpn := range []int64{1, 2, 3} {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: vpn})
		}

		Expect(func() {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: 4})
		}).To(Panic())
	})

	It("should deliver every outcome to registered hooks", func() {
		hook := &captureHook{}
		engine.AcceptHook(hook)

		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})

		Expect(hook.events).To(HaveLen(2))
		Expect(hook.events[0].Kind).To(Equal(FaultNoEviction))
		Expect(hook.events[1].Kind).To(Equal(Hit))
	})

	It("should keep occupied frames equal to resident entries", func() {
		policy.EXPECT().
			SelectVictim(gomock.Any(), gomock.Any()).
			Return(0, "victim").
			AnyTimes()

		for _, vpn := range []int64{1, 2, 3, 4, 1, 5, 2} {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: vpn})

			occupied := 0
			for _, f := range engine.Frames() {
				if f.Present {
					occupied++
				}
			}
			Expect(occupied).To(Equal(engine.table.ResidentCount()))
		}
	})

	Context("when terminating a process", func() {
		BeforeEach(func() {
			engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})
			engine.HandleAccess(AccessEvent{PID: 2, VPN: 1})
			engine.HandleAccess(AccessEvent{PID: 1, VPN: 2})
		})

		It("should free every frame the process held", func() {
			events := engine.TerminateProcess(1)

			Expect(events).To(HaveLen(2))
			for _, e := range events {
				Expect(e.Kind).To(Equal(ForcedEviction))
				Expect(e.Evicted.PID).To(Equal(PID(1)))
				Expect(e.Reason).To(Equal("process terminated"))
			}

			Expect(engine.table.EntriesOf(1)).To(BeEmpty())
			Expect(engine.pool.OccupiedCount()).To(Equal(1))

			entry, found := engine.table.Lookup(Page{PID: 2, VPN: 1})
			Expect(found).To(BeTrue())
			Expect(entry.Resident).To(BeTrue())
		})

		It("should remove non-resident entries too", func() {
			engine.table.MarkEvicted(Page{PID: 1, VPN: 2})
			engine.pool.Evict(2) // keep pool and table in sync

			events := engine.TerminateProcess(1)

			Expect(events).To(HaveLen(1))
			Expect(engine.table.EntriesOf(1)).To(BeEmpty())
		})

		It("should treat an unknown process as a no-op", func() {
			events := engine.TerminateProcess(42)

			Expect(events).To(BeEmpty())
			Expect(engine.pool.OccupiedCount()).To(Equal(3))
		})
	})

	It("should discard all history on reset", func() {
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})
		engine.HandleAccess(AccessEvent{PID: 1, VPN: 2})

		err := engine.Reset(Config{PageSizeKB: 4, FrameCount: 3})
		Expect(err).To(BeNil())

		Expect(engine.Now()).To(Equal(uint64(0)))
		Expect(engine.Stats()).To(Equal(Stats{}))
		Expect(engine.pool.OccupiedCount()).To(Equal(0))
		Expect(engine.Entries()).To(BeEmpty())

		err = engine.Reset(Config{PageSizeKB: 4, FrameCount: 3})
		Expect(err).To(BeNil())
		Expect(engine.pool.OccupiedCount()).To(Equal(0))
	})

	It("should reject an invalid reset configuration", func() {
		err := engine.Reset(Config{PageSizeKB: 4, FrameCount: 0})
		Expect(err).NotTo(BeNil())
	})

	It("should swap the policy and reset exactly once", func() {
		resets := &resetCountHook{}
		engine.AcceptHook(resets)

		engine.HandleAccess(AccessEvent{PID: 1, VPN: 1})

		next := NewMockPolicy(mockCtrl)
		next.EXPECT().Name().Return("Next").AnyTimes()

		err := engine.SetPolicy(next, Config{PageSizeKB: 8, FrameCount: 5})
		Expect(err).To(BeNil())

		Expect(resets.count).To(Equal(1))
		Expect(engine.PolicyName()).To(Equal("Next"))
		Expect(engine.Config()).To(Equal(Config{PageSizeKB: 8, FrameCount: 5}))
		Expect(engine.Now()).To(Equal(uint64(0)))
		Expect(engine.pool.OccupiedCount()).To(Equal(0))
	})

	It("should keep the old policy when SetPolicy is given bad input", func() {
		err := engine.SetPolicy(nil, Config{PageSizeKB: 4, FrameCount: 3})
		Expect(err).NotTo(BeNil())

		next := NewMockPolicy(mockCtrl)
		err = engine.SetPolicy(next, Config{PageSizeKB: 4, FrameCount: 0})
		Expect(err).NotTo(BeNil())

		Expect(engine.PolicyName()).To(Equal("Mock"))
	})
})
