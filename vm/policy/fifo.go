package policy

import (
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// FIFO evicts the resident page with the oldest load time. Frame-index
// order breaks ties, which cannot happen under a single engine clock but
// keeps the policy total over arbitrary snapshots.
type FIFO struct{}

// NewFIFO returns a newly constructed FIFO policy.
func NewFIFO() *FIFO {
	return &FIFO{}
}

// Name returns "FIFO".
func (p *FIFO) Name() string {
	return "FIFO"
}

// SelectVictim returns the frame whose page was loaded earliest.
func (p *FIFO) SelectVictim(
	frames []vm.FrameInfo,
	_ []vm.Page,
) (int, string) {
	victim := frames[0]
	for _, f := range frames[1:] {
		if f.LoadTime < victim.LoadTime {
			victim = f
		}
	}

	return victim.Index, fmt.Sprintf("oldest load time (t=%d)", victim.LoadTime)
}
