package vm

import "fmt"

// Config carries the parameters of one simulation run.
type Config struct {
	// PageSizeKB is the page size in kilobytes. The engine itself only
	// moves whole pages; the page size matters to request producers that
	// translate memory footprints into page counts.
	PageSizeKB int

	// FrameCount is the fixed number of physical frames.
	FrameCount int

	// PreserveAccessCount controls whether a page that regains residency
	// after an eviction keeps counting accesses from its pre-eviction
	// value. The default, false, restarts the count at 1.
	PreserveAccessCount bool
}

// Validate rejects non-positive page sizes and frame counts.
func (c Config) Validate() error {
	if c.PageSizeKB <= 0 {
		return fmt.Errorf("page size must be positive, got %d KB", c.PageSizeKB)
	}

	if c.FrameCount <= 0 {
		return fmt.Errorf("frame count must be positive, got %d", c.FrameCount)
	}

	return nil
}

// Stats accumulates counters over one run.
type Stats struct {
	Accesses        uint64
	Hits            uint64
	Faults          uint64
	Evictions       uint64
	ForcedEvictions uint64
}

// HitRate returns the fraction of accesses that were hits, in [0, 1].
func (s Stats) HitRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Hits) / float64(s.Accesses)
}

// FaultRate returns the fraction of accesses that faulted, in [0, 1].
func (s Stats) FaultRate() float64 {
	if s.Accesses == 0 {
		return 0
	}

	return float64(s.Faults) / float64(s.Accesses)
}

// An Engine orchestrates access requests over one frame pool and one page
// table, delegating victim selection to its replacement policy.
//
// The engine is single-threaded by design. Each access is processed to
// completion before the next is accepted, so the "at most one page per
// frame" invariant is never observable in a half-updated state. A
// concurrent host must serialize all calls into the engine.
//
// Every emitted OutcomeEvent is also delivered to the registered hooks at
// HookPosOutcome.
type Engine struct {
	HookableBase

	cfg    Config
	pool   *FramePool
	table  PageTable
	policy Policy
	clock  uint64
	stats  Stats
}

// NewEngine creates an engine for one simulation run.
func NewEngine(cfg Config, policy Policy) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if policy == nil {
		return nil, fmt.Errorf("replacement policy must not be nil")
	}

	e := &Engine{
		cfg:    cfg,
		pool:   NewFramePool(cfg.FrameCount),
		table:  NewPageTable(cfg.PreserveAccessCount),
		policy: policy,
	}

	return e, nil
}

// Config returns the configuration of the current run.
func (e *Engine) Config() Config {
	return e.cfg
}

// PolicyName returns the name of the replacement policy in use.
func (e *Engine) PolicyName() string {
	return e.policy.Name()
}

// Stats returns the counters accumulated since the last reset.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Now returns the engine's logical clock. The clock advances by one per
// processed access.
func (e *Engine) Now() uint64 {
	return e.clock
}

// Frames returns a snapshot of all frame slots, in index order.
func (e *Engine) Frames() []Frame {
	return e.pool.Frames()
}

// Entries returns a snapshot of all page-table entries.
func (e *Engine) Entries() []PageTableEntry {
	return e.table.Entries()
}

// HandleAccess processes one access request and returns the outcome.
//
// Malformed input (negative page number) is rejected with an error before
// any state is mutated. Internal contract violations panic.
func (e *Engine) HandleAccess(acc AccessEvent) (OutcomeEvent, error) {
	if acc.VPN < 0 {
		return OutcomeEvent{}, fmt.Errorf(
			"virtual page number must not be negative, got %d", acc.VPN)
	}

	e.clock++
	now := e.clock
	page := Page{PID: acc.PID, VPN: acc.VPN}

	e.stats.Accesses++

	var out OutcomeEvent

	entry, found := e.table.Lookup(page)
	switch {
	case found && entry.Resident:
		out = e.handleHit(page, entry, now)
	default:
		out = e.handleFault(page, acc.Future, now)
	}

	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosOutcome, Item: out})

	return out, nil
}

func (e *Engine) handleHit(page Page, entry PageTableEntry, now uint64) OutcomeEvent {
	e.table.Touch(page, now)
	e.pool.Touch(entry.FrameIndex, now)
	e.notifyToucher(entry.FrameIndex)

	e.stats.Hits++

	return OutcomeEvent{
		Kind:       Hit,
		Page:       page,
		FrameIndex: entry.FrameIndex,
		Time:       now,
	}
}

func (e *Engine) handleFault(page Page, future []Page, now uint64) OutcomeEvent {
	e.stats.Faults++

	if frameIndex, ok := e.pool.AllocateFree(); ok {
		e.pool.Load(frameIndex, page, now)
		e.table.MarkResident(page, frameIndex, now)
		e.notifyToucher(frameIndex)

		return OutcomeEvent{
			Kind:       FaultNoEviction,
			Page:       page,
			FrameIndex: frameIndex,
			Time:       now,
		}
	}

	frameIndex, reason := e.policy.SelectVictim(e.frameInfos(), future)
	if !e.pool.Occupied(frameIndex) {
		panic(fmt.Sprintf("policy %s selected frame %d, which holds no page",
			e.policy.Name(), frameIndex))
	}

	evicted := e.pool.Evict(frameIndex)
	e.table.MarkEvicted(evicted)

	e.pool.Load(frameIndex, page, now)
	e.table.MarkResident(page, frameIndex, now)
	e.notifyToucher(frameIndex)

	e.stats.Evictions++

	return OutcomeEvent{
		Kind:         FaultWithEviction,
		Page:         page,
		FrameIndex:   frameIndex,
		Evicted:      evicted,
		EvictedValid: true,
		Reason:       fmt.Sprintf("%s: %s", e.policy.Name(), reason),
		Time:         now,
	}
}

// TerminateProcess evicts every resident page of the process and removes
// all of its page-table entries. One ForcedEviction event is emitted per
// freed frame. Terminating a process with no entries is a no-op returning
// an empty slice.
func (e *Engine) TerminateProcess(pid PID) []OutcomeEvent {
	entries := e.table.EntriesOf(pid)

	var events []OutcomeEvent
	for _, entry := range entries {
		if entry.Resident {
			evicted := e.pool.Evict(entry.FrameIndex)
			e.table.MarkEvicted(evicted)
			e.stats.ForcedEvictions++

			out := OutcomeEvent{
				Kind:         ForcedEviction,
				Page:         evicted,
				FrameIndex:   entry.FrameIndex,
				Evicted:      evicted,
				EvictedValid: true,
				Reason:       "process terminated",
				Time:         e.clock,
			}
			events = append(events, out)

			e.InvokeHook(HookCtx{Domain: e, Pos: HookPosOutcome, Item: out})
		}

		e.table.Remove(entry.Page)
	}

	return events
}

// Reset reinitializes the frame pool and the page table for a fresh run
// with the given configuration, discarding all history.
func (e *Engine) Reset(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	e.cfg = cfg
	e.pool = NewFramePool(cfg.FrameCount)
	e.table = NewPageTable(cfg.PreserveAccessCount)
	e.clock = 0
	e.stats = Stats{}

	if r, ok := e.policy.(Resettable); ok {
		r.Reset()
	}

	e.InvokeHook(HookCtx{Domain: e, Pos: HookPosReset, Item: cfg})

	return nil
}

// SetPolicy swaps the replacement policy and resets with the given
// configuration in one step, so the swap fires a single reset. The frame
// pool and page table are cleared, since policies may not observe a
// history they did not build.
func (e *Engine) SetPolicy(policy Policy, cfg Config) error {
	if policy == nil {
		return fmt.Errorf("replacement policy must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	e.policy = policy

	return e.Reset(cfg)
}

func (e *Engine) frameInfos() []FrameInfo {
	frames := e.pool.Frames()
	infos := make([]FrameInfo, 0, len(frames))

	for _, f := range frames {
		if !f.Present {
			continue
		}

		info := FrameInfo{
			Index:          f.Index,
			Page:           f.Page,
			LoadTime:       f.LoadTime,
			LastAccessTime: f.LastAccessTime,
		}

		if entry, found := e.table.Lookup(f.Page); found {
			info.AccessCount = entry.AccessCount
		}

		infos = append(infos, info)
	}

	return infos
}

func (e *Engine) notifyToucher(frameIndex int) {
	if t, ok := e.policy.(Toucher); ok {
		t.Touch(frameIndex)
	}
}
