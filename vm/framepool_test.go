package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FramePool", func() {
	var pool *FramePool

	BeforeEach(func() {
		pool = NewFramePool(3)
	})

	It("should start with all frames free", func() {
		Expect(pool.Size()).To(Equal(3))
		Expect(pool.IsFull()).To(BeFalse())
		Expect(pool.OccupiedCount()).To(Equal(0))
	})

	It("should allocate each frame once", func() {
		seen := make(map[int]bool)
		for i := 0; i < 3; i++ {
			idx, ok := pool.AllocateFree()
			Expect(ok).To(BeTrue())
			Expect(seen[idx]).To(BeFalse())
			seen[idx] = true
		}

		_, ok := pool.AllocateFree()
		Expect(ok).To(BeFalse())
		Expect(pool.IsFull()).To(BeTrue())
	})

	It("should load and evict", func() {
		page := Page{PID: 1, VPN: 4}

		idx, ok := pool.AllocateFree()
		Expect(ok).To(BeTrue())

		pool.Load(idx, page, 7)

		frames := pool.Frames()
		Expect(frames[idx].Present).To(BeTrue())
		Expect(frames[idx].Page).To(Equal(page))
		Expect(frames[idx].LoadTime).To(Equal(uint64(7)))
		Expect(frames[idx].LastAccessTime).To(Equal(uint64(7)))

		evicted := pool.Evict(idx)
		Expect(evicted).To(Equal(page))
		Expect(pool.Occupied(idx)).To(BeFalse())
		Expect(pool.IsFull()).To(BeFalse())
	})

	It("should allow loading into a freshly evicted frame", func() {
		idx, _ := pool.AllocateFree()
		pool.Load(idx, Page{PID: 1, VPN: 1}, 1)
		pool.Evict(idx)

		Expect(func() {
			pool.Load(idx, Page{PID: 1, VPN: 2}, 2)
		}).NotTo(Panic())
	})

	It("should update last access time on touch", func() {
		idx, _ := pool.AllocateFree()
		pool.Load(idx, Page{PID: 1, VPN: 1}, 1)

		pool.Touch(idx, 5)

		frames := pool.Frames()
		Expect(frames[idx].LastAccessTime).To(Equal(uint64(5)))
		Expect(frames[idx].LoadTime).To(Equal(uint64(1)))
	})

	It("should panic when evicting a free frame", func() {
		Expect(func() { pool.Evict(0) }).To(Panic())
	})

	It("should panic when loading over a live occupant", func() {
		idx, _ := pool.AllocateFree()
		pool.Load(idx, Page{PID: 1, VPN: 1}, 1)

		Expect(func() {
			pool.Load(idx, Page{PID: 1, VPN: 2}, 2)
		}).To(Panic())
	})

	It("should panic on out-of-range frame index", func() {
		Expect(func() { pool.Evict(3) }).To(Panic())
		Expect(func() { pool.Evict(-1) }).To(Panic())
	})

	It("should free a reserved frame on release", func() {
		idx, _ := pool.AllocateFree()
		pool.Release(idx)

		Expect(pool.IsFull()).To(BeFalse())

		idx2, ok := pool.AllocateFree()
		Expect(ok).To(BeTrue())
		Expect(idx2).To(Equal(idx))
	})
})
