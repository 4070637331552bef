// Package policy provides the replacement policies that decide which
// resident page to evict when the frame pool is full.
//
// All policies implement vm.Policy. They are pure functions of the frame
// snapshot the engine hands them, with one exception: Clock keeps
// reference bits across calls and therefore also implements vm.Toucher
// and vm.Resettable.
package policy

import (
	"fmt"
	"strings"

	"github.com/sarchlab/vmsim/vm"
)

// Make returns the policy registered under the given name. Names are
// case-insensitive. Supported: FIFO, LRU, Optimal (alias OPT), LFU, Clock.
func Make(name string) (vm.Policy, error) {
	switch strings.ToUpper(name) {
	case "FIFO":
		return NewFIFO(), nil
	case "LRU":
		return NewLRU(), nil
	case "OPTIMAL", "OPT":
		return NewOptimal(), nil
	case "LFU":
		return NewLFU(), nil
	case "CLOCK":
		return NewClock(), nil
	}

	return nil, fmt.Errorf("unknown replacement policy %q", name)
}

// Names lists the supported policy names.
func Names() []string {
	return []string{"FIFO", "LRU", "Optimal", "LFU", "Clock"}
}
