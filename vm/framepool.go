package vm

import "fmt"

type frameState int

const (
	frameFree frameState = iota
	frameReserved
	frameResident
)

// A FramePool is a fixed-size array of physical frame slots. The pool only
// tracks occupancy; deciding which frame to evict is the policy's job and
// sequencing allocate/evict/load is the engine's job.
//
// Contract violations (loading over a live occupant, evicting a free
// frame) panic. They indicate a bug in the caller, not bad input.
type FramePool struct {
	frames []Frame
	states []frameState
}

// NewFramePool creates a pool with count empty frames.
func NewFramePool(count int) *FramePool {
	p := &FramePool{
		frames: make([]Frame, count),
		states: make([]frameState, count),
	}

	for i := range p.frames {
		p.frames[i].Index = i
	}

	return p
}

// Size returns the fixed number of frames in the pool.
func (p *FramePool) Size() int {
	return len(p.frames)
}

// AllocateFree returns the index of an unoccupied frame and marks it
// reserved so a second allocation cannot hand it out again. The second
// return value is false when the pool is full.
func (p *FramePool) AllocateFree() (int, bool) {
	for i, s := range p.states {
		if s == frameFree {
			p.states[i] = frameReserved
			return i, true
		}
	}

	return 0, false
}

// IsFull reports whether no frame is free.
func (p *FramePool) IsFull() bool {
	for _, s := range p.states {
		if s == frameFree {
			return false
		}
	}

	return true
}

// Evict clears the occupancy of the given frame and returns the page that
// had occupied it. The frame becomes free.
func (p *FramePool) Evict(frameIndex int) Page {
	p.frameMustExist(frameIndex)

	if p.states[frameIndex] != frameResident {
		panic(fmt.Sprintf("evicting frame %d, which holds no page", frameIndex))
	}

	page := p.frames[frameIndex].Page
	p.frames[frameIndex] = Frame{Index: frameIndex}
	p.states[frameIndex] = frameFree

	return page
}

// Load places page into the given frame, setting both the load time and
// the last access time to now. The frame must be free or freshly
// allocated; a live occupant is never overwritten silently.
func (p *FramePool) Load(frameIndex int, page Page, now uint64) {
	p.frameMustExist(frameIndex)

	if p.states[frameIndex] == frameResident {
		panic(fmt.Sprintf("loading into frame %d, which already holds P%d page %d",
			frameIndex, p.frames[frameIndex].Page.PID, p.frames[frameIndex].Page.VPN))
	}

	p.frames[frameIndex] = Frame{
		Index:          frameIndex,
		Page:           page,
		Present:        true,
		LoadTime:       now,
		LastAccessTime: now,
	}
	p.states[frameIndex] = frameResident
}

// Release returns a reserved frame to the free state without loading a
// page. It undoes AllocateFree when the caller cannot complete the load.
func (p *FramePool) Release(frameIndex int) {
	p.frameMustExist(frameIndex)

	if p.states[frameIndex] != frameReserved {
		panic(fmt.Sprintf("releasing frame %d, which is not reserved", frameIndex))
	}

	p.states[frameIndex] = frameFree
}

// Touch updates the last access time of an occupied frame.
func (p *FramePool) Touch(frameIndex int, now uint64) {
	p.frameMustExist(frameIndex)

	if p.states[frameIndex] != frameResident {
		panic(fmt.Sprintf("touching frame %d, which holds no page", frameIndex))
	}

	p.frames[frameIndex].LastAccessTime = now
}

// Occupied returns whether the given frame currently holds a page.
func (p *FramePool) Occupied(frameIndex int) bool {
	p.frameMustExist(frameIndex)
	return p.states[frameIndex] == frameResident
}

// OccupiedCount returns the number of frames currently holding a page.
func (p *FramePool) OccupiedCount() int {
	n := 0
	for _, s := range p.states {
		if s == frameResident {
			n++
		}
	}

	return n
}

// Frames returns a copy of all frame slots, in index order.
func (p *FramePool) Frames() []Frame {
	frames := make([]Frame, len(p.frames))
	copy(frames, p.frames)

	return frames
}

func (p *FramePool) frameMustExist(frameIndex int) {
	if frameIndex < 0 || frameIndex >= len(p.frames) {
		panic(fmt.Sprintf("frame index %d out of range [0, %d)",
			frameIndex, len(p.frames)))
	}
}
