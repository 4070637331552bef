// Package vm implements a small virtual-memory engine for paging
// simulations. It models a fixed pool of physical frames, a page table,
// and a page-fault state machine that delegates victim selection to a
// pluggable replacement policy.
package vm

// PID stands for Process ID.
type PID uint32

// A Page identifies one unit of a process's virtual memory. Page values
// are immutable identities and are safe to copy and compare.
type Page struct {
	PID PID
	VPN int64
}

// A Frame is one physical memory slot. A frame holds at most one page at
// any time. LoadTime and LastAccessTime are logical timestamps taken from
// the engine's clock, not wall-clock time.
type Frame struct {
	Index          int
	Page           Page
	Present        bool
	LoadTime       uint64
	LastAccessTime uint64
}

// A FrameInfo is the view of an occupied frame that the engine hands to a
// replacement policy. AccessCount is copied from the page table so that
// frequency-based policies do not need table access.
type FrameInfo struct {
	Index          int
	Page           Page
	LoadTime       uint64
	LastAccessTime uint64
	AccessCount    uint64
}

// A Policy selects the frame to evict when the frame pool is full.
//
// SelectVictim receives a snapshot of all occupied frames, sorted by frame
// index, and a lookahead hint with the remaining access sequence (may be
// nil for policies that do not use it). It returns the index of the victim
// frame together with a human-readable justification. A policy must be a
// pure function of its arguments and must return an index present in the
// snapshot.
type Policy interface {
	Name() string
	SelectVictim(frames []FrameInfo, future []Page) (frameIndex int, reason string)
}

// A Toucher is a policy that wants to observe page references, such as a
// second-chance policy maintaining reference bits. The engine notifies the
// toucher on every hit and on every load.
type Toucher interface {
	Touch(frameIndex int)
}

// A Resettable is a policy that carries internal state across calls and
// needs to be cleared when the engine is reset.
type Resettable interface {
	Reset()
}
