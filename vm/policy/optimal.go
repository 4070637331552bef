package policy

import (
	"fmt"

	"github.com/sarchlab/vmsim/vm"
)

// Optimal evicts the resident page whose next use lies farthest in the
// future, based on the lookahead hint the engine passes along. A page that
// is never referenced again always wins over one that is; ties among
// never-referenced pages go to the smallest frame index.
//
// Without a hint the policy degenerates to FIFO, matching the behavior of
// classic textbook simulators when lookahead runs out.
type Optimal struct{}

// NewOptimal returns a newly constructed Optimal policy.
func NewOptimal() *Optimal {
	return &Optimal{}
}

// Name returns "Optimal".
func (p *Optimal) Name() string {
	return "Optimal"
}

// SelectVictim returns the frame whose page is referenced again latest, or
// never.
func (p *Optimal) SelectVictim(
	frames []vm.FrameInfo,
	future []vm.Page,
) (int, string) {
	if len(future) == 0 {
		return NewFIFO().SelectVictim(frames, nil)
	}

	nextUse := make(map[vm.Page]int)
	for i := len(future) - 1; i >= 0; i-- {
		nextUse[future[i]] = i
	}

	victim := frames[0]
	victimDist, victimSeen := nextUse[victim.Page]

	for _, f := range frames[1:] {
		dist, seen := nextUse[f.Page]

		switch {
		case !victimSeen:
			// A never-referenced page with a smaller frame index is
			// already winning.
		case !seen:
			victim, victimSeen = f, false
		case dist > victimDist:
			victim, victimDist = f, dist
		}
	}

	if !victimSeen {
		return victim.Index, "never referenced again"
	}

	return victim.Index,
		fmt.Sprintf("next reference %d accesses away", victimDist+1)
}
