package policy

import (
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// Clock implements the second-chance algorithm. Every referenced frame
// gets one more trip around the clock before it can be victimized: the
// hand sweeps the occupied frames in index order, clearing reference bits
// until it finds a frame whose bit is already clear.
//
// Clock is the one stateful policy. The engine feeds it references through
// the vm.Toucher interface, and Reset clears the hand and all bits.
type Clock struct {
	referenced map[int]bool
	hand       int
}

// NewClock returns a newly constructed Clock policy.
func NewClock() *Clock {
	return &Clock{referenced: make(map[int]bool)}
}

// Name returns "Clock".
func (p *Clock) Name() string {
	return "Clock"
}

// Touch sets the reference bit of the given frame.
func (p *Clock) Touch(frameIndex int) {
	p.referenced[frameIndex] = true
}

// Reset clears the hand position and all reference bits.
func (p *Clock) Reset() {
	p.referenced = make(map[int]bool)
	p.hand = 0
}

// SelectVictim sweeps from the hand position, granting second chances,
// until it finds an unreferenced frame. The sweep terminates within two
// passes since every cleared bit stays clear until the next touch.
func (p *Clock) SelectVictim(
	frames []vm.FrameInfo,
	_ []vm.Page,
) (int, string) {
	if p.hand >= len(frames) {
		p.hand = 0
	}

	for i := 0; i < 2*len(frames); i++ {
		pos := (p.hand + i) % len(frames)
		f := frames[pos]

		if p.referenced[f.Index] {
			p.referenced[f.Index] = false
			continue
		}

		p.hand = (pos + 1) % len(frames)
		delete(p.referenced, f.Index)

		return f.Index, fmt.Sprintf("second chance expired at frame %d", f.Index)
	}

	// Unreachable: the first pass clears every bit.
	f := frames[p.hand]
	p.hand = (p.hand + 1) % len(frames)

	return f.Index, "second chance expired"
}
