package policy

import (
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// LFU evicts the resident page with the fewest accesses since it was
// loaded. Recency breaks ties, evicting the staler page, and frame index
// breaks any remaining tie.
type LFU struct{}

// NewLFU returns a newly constructed LFU policy.
func NewLFU() *LFU {
	return &LFU{}
}

// Name returns "LFU".
func (p *LFU) Name() string {
	return "LFU"
}

// SelectVictim returns the frame whose page was accessed least often.
func (p *LFU) SelectVictim(
	frames []vm.FrameInfo,
	_ []vm.Page,
) (int, string) {
	victim := frames[0]
	for _, f := range frames[1:] {
		if f.AccessCount < victim.AccessCount ||
			(f.AccessCount == victim.AccessCount &&
				f.LastAccessTime < victim.LastAccessTime) {
			victim = f
		}
	}

	return victim.Index,
		fmt.Sprintf("least frequently used (%d accesses)", victim.AccessCount)
}
