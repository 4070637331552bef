// Package procfeed turns live operating-system processes into request
// streams for the engine. It samples process memory usage, derives a page
// count per process, and replays locality-based access sequences over
// those pages.
//
// The feed only produces requests. Applying them to an engine is the
// consumer's job, which keeps all engine calls on a single goroutine.
package procfeed

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/workload"
)

// ProcessInfo describes one sampled OS process.
type ProcessInfo struct {
	PID      int32
	Name     string
	MemoryKB uint64
	Pages    int64
}

// RequestKind classifies feed requests.
type RequestKind int

const (
	// Access requests one page access.
	Access RequestKind = iota

	// Terminate reports that a tracked process has exited.
	Terminate
)

// A Request is one unit of work for the engine host.
type Request struct {
	Kind   RequestKind
	PID    vm.PID
	Access vm.AccessEvent
}

type trackedProc struct {
	info     ProcessInfo
	sequence []int64
}

// A Monitor samples live processes and emits access requests for the ones
// being tracked.
type Monitor struct {
	pageSizeKB int
	interval   time.Duration
	lookahead  int
	rnd        *rand.Rand

	mu      sync.Mutex
	tracked map[int32]*trackedProc

	requests chan Request
}

// NewMonitor creates a monitor that emits one request per interval.
func NewMonitor(pageSizeKB int, interval time.Duration) *Monitor {
	return &Monitor{
		pageSizeKB: pageSizeKB,
		interval:   interval,
		lookahead:  50,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		tracked:    make(map[int32]*trackedProc),
		requests:   make(chan Request),
	}
}

// Requests returns the channel the monitor emits on. The channel is closed
// when Run returns.
func (m *Monitor) Requests() <-chan Request {
	return m.requests
}

// Snapshot lists all processes currently visible to the monitor, ordered
// by descending memory usage. Processes that disappear or deny access
// mid-listing are skipped.
func (m *Monitor) Snapshot() ([]ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		info, err := m.describe(p)
		if err != nil {
			continue
		}

		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].MemoryKB > infos[j].MemoryKB
	})

	return infos, nil
}

// Track starts emitting access requests for the given OS process.
func (m *Monitor) Track(pid int32) (ProcessInfo, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("process %d: %w", pid, err)
	}

	info, err := m.describe(p)
	if err != nil {
		return ProcessInfo{}, err
	}

	// m.rnd is shared with the Run goroutine and is only safe under m.mu.
	m.mu.Lock()
	gen := workload.NewGenerator(info.Pages, m.rnd.Int63())
	m.tracked[pid] = &trackedProc{
		info:     info,
		sequence: gen.Sequence(m.lookahead),
	}
	m.mu.Unlock()

	return info, nil
}

// Untrack stops emitting requests for the given process.
func (m *Monitor) Untrack(pid int32) {
	m.mu.Lock()
	delete(m.tracked, pid)
	m.mu.Unlock()
}

// Tracked returns the processes currently being tracked, ordered by PID.
func (m *Monitor) Tracked() []ProcessInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]ProcessInfo, 0, len(m.tracked))
	for _, t := range m.tracked {
		infos = append(infos, t.info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].PID < infos[j].PID
	})

	return infos
}

// Run emits requests until the context is canceled. Each tick picks one
// tracked process at random, emits the next access from its sequence, and
// rotates the sequence. A tracked process that has exited produces one
// Terminate request and is dropped.
func (m *Monitor) Run(ctx context.Context) {
	defer close(m.requests)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		req, ok := m.nextRequest()
		if !ok {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case m.requests <- req:
		}
	}
}

func (m *Monitor) nextRequest() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tracked) == 0 {
		return Request{}, false
	}

	pids := make([]int32, 0, len(m.tracked))
	for pid := range m.tracked {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return pids[i] < pids[j] })

	pid := pids[m.rnd.Intn(len(pids))]

	if exists, _ := process.PidExists(pid); !exists {
		delete(m.tracked, pid)
		return Request{Kind: Terminate, PID: vm.PID(pid)}, true
	}

	t := m.tracked[pid]
	if len(t.sequence) == 0 {
		return Request{}, false
	}

	vpn := t.sequence[0]
	t.sequence = append(t.sequence[1:], vpn)

	future := make([]vm.Page, 0, len(t.sequence))
	for _, v := range t.sequence {
		future = append(future, vm.Page{PID: vm.PID(pid), VPN: v})
	}

	return Request{
		Kind: Access,
		PID:  vm.PID(pid),
		Access: vm.AccessEvent{
			PID:    vm.PID(pid),
			VPN:    vpn,
			Future: future,
		},
	}, true
}

func (m *Monitor) describe(p *process.Process) (ProcessInfo, error) {
	name, err := p.Name()
	if err != nil {
		return ProcessInfo{}, fmt.Errorf("process %d: %w", p.Pid, err)
	}

	memInfo, err := p.MemoryInfo()
	if err != nil || memInfo == nil {
		return ProcessInfo{}, fmt.Errorf("process %d has no memory info", p.Pid)
	}

	memoryKB := memInfo.RSS / 1024

	return ProcessInfo{
		PID:      p.Pid,
		Name:     name,
		MemoryKB: memoryKB,
		Pages:    workload.CalculatePages(int(memoryKB), m.pageSizeKB),
	}, nil
}
