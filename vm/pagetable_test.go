package vm

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PageTable", func() {
	var table PageTable

	BeforeEach(func() {
		table = NewPageTable(false)
	})

	It("should report missing pages as not found", func() {
		_, found := table.Lookup(Page{PID: 1, VPN: 0})
		Expect(found).To(BeFalse())
	})

	It("should create an entry on first residency", func() {
		page := Page{PID: 1, VPN: 4}

		table.MarkResident(page, 2, 10)

		entry, found := table.Lookup(page)
		Expect(found).To(BeTrue())
		Expect(entry.Resident).To(BeTrue())
		Expect(entry.FrameIndex).To(Equal(2))
		Expect(entry.LoadTime).To(Equal(uint64(10)))
		Expect(entry.LastAccessTime).To(Equal(uint64(10)))
		Expect(entry.AccessCount).To(Equal(uint64(1)))
	})

	It("should update recency and count on touch", func() {
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 2, 10)

		table.Touch(page, 11)
		table.Touch(page, 12)

		entry, _ := table.Lookup(page)
		Expect(entry.LastAccessTime).To(Equal(uint64(12)))
		Expect(entry.AccessCount).To(Equal(uint64(3)))
		Expect(entry.LoadTime).To(Equal(uint64(10)))
	})

	It("should retain history after eviction", func() {
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 2, 10)
		table.Touch(page, 11)

		table.MarkEvicted(page)

		entry, found := table.Lookup(page)
		Expect(found).To(BeTrue())
		Expect(entry.Resident).To(BeFalse())
		Expect(entry.LastAccessTime).To(Equal(uint64(11)))
	})

	It("should restart the access count on re-residency by default", func() {
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 2, 10)
		table.Touch(page, 11)
		table.MarkEvicted(page)

		table.MarkResident(page, 0, 20)

		entry, _ := table.Lookup(page)
		Expect(entry.AccessCount).To(Equal(uint64(1)))
		Expect(entry.LoadTime).To(Equal(uint64(20)))
	})

	It("should continue the access count when configured to preserve it", func() {
		table = NewPageTable(true)
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 2, 10)
		table.Touch(page, 11)
		table.MarkEvicted(page)

		table.MarkResident(page, 0, 20)

		entry, _ := table.Lookup(page)
		Expect(entry.AccessCount).To(Equal(uint64(3)))
	})

	It("should remove entries outright", func() {
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 2, 10)

		table.Remove(page)

		_, found := table.Lookup(page)
		Expect(found).To(BeFalse())
	})

	It("should panic when touching a non-resident page", func() {
		page := Page{PID: 1, VPN: 4}

		Expect(func() { table.Touch(page, 1) }).To(Panic())

		table.MarkResident(page, 0, 1)
		table.MarkEvicted(page)

		Expect(func() { table.Touch(page, 2) }).To(Panic())
	})

	It("should panic when marking an already resident page resident", func() {
		page := Page{PID: 1, VPN: 4}
		table.MarkResident(page, 0, 1)

		Expect(func() { table.MarkResident(page, 1, 2) }).To(Panic())
	})

	It("should order entries by pid and page number", func() {
		table.MarkResident(Page{PID: 2, VPN: 1}, 0, 1)
		table.MarkResident(Page{PID: 1, VPN: 9}, 1, 2)
		table.MarkResident(Page{PID: 1, VPN: 3}, 2, 3)

		entries := table.Entries()
		Expect(entries).To(HaveLen(3))
		Expect(entries[0].Page).To(Equal(Page{PID: 1, VPN: 3}))
		Expect(entries[1].Page).To(Equal(Page{PID: 1, VPN: 9}))
		Expect(entries[2].Page).To(Equal(Page{PID: 2, VPN: 1}))
	})

	It("should count resident entries", func() {
		table.MarkResident(Page{PID: 1, VPN: 1}, 0, 1)
		table.MarkResident(Page{PID: 1, VPN: 2}, 1, 2)
		table.MarkEvicted(Page{PID: 1, VPN: 1})

		Expect(table.ResidentCount()).To(Equal(1))
	})
})
