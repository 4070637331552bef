package vm

import (
	"fmt"
	"sort"
)

// A PageTableEntry records the residency state of one (process, virtual
// page) pair. Load and access history is retained after eviction for
// diagnostics; only Remove discards an entry.
type PageTableEntry struct {
	Page           Page
	Resident       bool
	FrameIndex     int
	LoadTime       uint64
	LastAccessTime uint64
	AccessCount    uint64
}

// A PageTable maps (process, virtual page) pairs to frames.
type PageTable interface {
	// Lookup returns the entry for the page. The bool return value
	// indicates whether an entry exists at all, resident or not.
	Lookup(page Page) (PageTableEntry, bool)

	// MarkResident creates or updates the entry for page, binding it to
	// frameIndex at logical time now.
	MarkResident(page Page, frameIndex int, now uint64)

	// Touch updates the last access time and access count of a resident
	// entry. Touching a missing or evicted entry panics.
	Touch(page Page, now uint64)

	// MarkEvicted transitions a resident entry to non-resident. History
	// fields are retained.
	MarkEvicted(page Page)

	// Remove deletes the entry outright, resident or not. This is the
	// process-termination path.
	Remove(page Page)

	// Entries returns all entries ordered by (PID, VPN).
	Entries() []PageTableEntry

	// EntriesOf returns the entries of one process ordered by VPN.
	EntriesOf(pid PID) []PageTableEntry

	// ResidentCount returns the number of resident entries.
	ResidentCount() int

	// Reset discards all entries.
	Reset()
}

// NewPageTable creates an empty page table. When preserveAccessCount is
// true, a page that regains residency after an eviction continues counting
// accesses from its pre-eviction value; otherwise the count restarts at 1.
func NewPageTable(preserveAccessCount bool) PageTable {
	return &pageTableImpl{
		preserveAccessCount: preserveAccessCount,
		entries:             make(map[PID]map[int64]*PageTableEntry),
	}
}

type pageTableImpl struct {
	preserveAccessCount bool
	entries             map[PID]map[int64]*PageTableEntry
}

func (t *pageTableImpl) Lookup(page Page) (PageTableEntry, bool) {
	entry, found := t.entries[page.PID][page.VPN]
	if !found {
		return PageTableEntry{}, false
	}

	return *entry, true
}

func (t *pageTableImpl) MarkResident(page Page, frameIndex int, now uint64) {
	procEntries, found := t.entries[page.PID]
	if !found {
		procEntries = make(map[int64]*PageTableEntry)
		t.entries[page.PID] = procEntries
	}

	entry, found := procEntries[page.VPN]
	if !found {
		procEntries[page.VPN] = &PageTableEntry{
			Page:           page,
			Resident:       true,
			FrameIndex:     frameIndex,
			LoadTime:       now,
			LastAccessTime: now,
			AccessCount:    1,
		}
		return
	}

	if entry.Resident {
		panic(fmt.Sprintf("P%d page %d is already resident in frame %d",
			page.PID, page.VPN, entry.FrameIndex))
	}

	entry.Resident = true
	entry.FrameIndex = frameIndex
	entry.LoadTime = now
	entry.LastAccessTime = now

	if t.preserveAccessCount {
		entry.AccessCount++
	} else {
		entry.AccessCount = 1
	}
}

func (t *pageTableImpl) Touch(page Page, now uint64) {
	entry := t.residentEntryMustExist(page)

	entry.LastAccessTime = now
	entry.AccessCount++
}

func (t *pageTableImpl) MarkEvicted(page Page) {
	entry := t.residentEntryMustExist(page)

	entry.Resident = false
	entry.FrameIndex = 0
}

func (t *pageTableImpl) Remove(page Page) {
	procEntries, found := t.entries[page.PID]
	if !found {
		panic(fmt.Sprintf("P%d page %d has no page-table entry", page.PID, page.VPN))
	}

	if _, found := procEntries[page.VPN]; !found {
		panic(fmt.Sprintf("P%d page %d has no page-table entry", page.PID, page.VPN))
	}

	delete(procEntries, page.VPN)
	if len(procEntries) == 0 {
		delete(t.entries, page.PID)
	}
}

func (t *pageTableImpl) Entries() []PageTableEntry {
	pids := make([]PID, 0, len(t.entries))
	for pid := range t.entries {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	var all []PageTableEntry
	for _, pid := range pids {
		all = append(all, t.EntriesOf(pid)...)
	}

	return all
}

func (t *pageTableImpl) EntriesOf(pid PID) []PageTableEntry {
	procEntries := t.entries[pid]

	vpns := make([]int64, 0, len(procEntries))
	for vpn := range procEntries {
		vpns = append(vpns, vpn)
	}
	sort.Slice(vpns, func(i, j int) bool { return vpns[i] < vpns[j] })

	entries := make([]PageTableEntry, 0, len(vpns))
	for _, vpn := range vpns {
		entries = append(entries, *procEntries[vpn])
	}

	return entries
}

func (t *pageTableImpl) ResidentCount() int {
	n := 0
	for _, procEntries := range t.entries {
		for _, entry := range procEntries {
			if entry.Resident {
				n++
			}
		}
	}

	return n
}

func (t *pageTableImpl) Reset() {
	t.entries = make(map[PID]map[int64]*PageTableEntry)
}

func (t *pageTableImpl) residentEntryMustExist(page Page) *PageTableEntry {
	entry, found := t.entries[page.PID][page.VPN]
	if !found {
		panic(fmt.Sprintf("P%d page %d has no page-table entry", page.PID, page.VPN))
	}

	if !entry.Resident {
		panic(fmt.Sprintf("P%d page %d is not resident", page.PID, page.VPN))
	}

	return entry
}
