package policy

import (
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// LRU evicts the resident page with the oldest last access time.
type LRU struct{}

// NewLRU returns a newly constructed LRU policy.
func NewLRU() *LRU {
	return &LRU{}
}

// Name returns "LRU".
func (p *LRU) Name() string {
	return "LRU"
}

// SelectVictim returns the frame whose page was accessed least recently.
func (p *LRU) SelectVictim(
	frames []vm.FrameInfo,
	_ []vm.Page,
) (int, string) {
	victim := frames[0]
	for _, f := range frames[1:] {
		if f.LastAccessTime < victim.LastAccessTime {
			victim = f
		}
	}

	return victim.Index,
		fmt.Sprintf("least recently used (t=%d)", victim.LastAccessTime)
}
