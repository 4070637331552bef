package vm

import "fmt"

// An AccessEvent is one access request entering the engine: process PID
// touches virtual page VPN. Future optionally carries the remaining access
// sequence known to the request producer, which lookahead policies use as
// a hint. Time is assigned by the engine, not the producer.
type AccessEvent struct {
	PID    PID
	VPN    int64
	Future []Page
}

// Kind classifies the outcome of processing one access.
type Kind int

const (
	// Hit means the page was already resident.
	Hit Kind = iota

	// FaultNoEviction means the page was not resident and a free frame
	// absorbed it.
	FaultNoEviction

	// FaultWithEviction means the page was not resident and a victim had
	// to be evicted to make room.
	FaultWithEviction

	// ForcedEviction means a resident page was evicted because its
	// process terminated. No policy is involved.
	ForcedEviction
)

func (k Kind) String() string {
	switch k {
	case Hit:
		return "HIT"
	case FaultNoEviction:
		return "FAULT"
	case FaultWithEviction:
		return "FAULT_EVICT"
	case ForcedEviction:
		return "FORCED_EVICT"
	}

	return fmt.Sprintf("Kind(%d)", int(k))
}

// An OutcomeEvent is emitted by the engine after processing an access or
// forcing an eviction. It carries enough data for a sink to render frame
// occupancy or append a log line.
type OutcomeEvent struct {
	Kind         Kind
	Page         Page
	FrameIndex   int
	Evicted      Page
	EvictedValid bool
	Reason       string
	Time         uint64
}

func (e OutcomeEvent) String() string {
	switch e.Kind {
	case Hit:
		return fmt.Sprintf("t=%d P%d page %d -> HIT, frame %d",
			e.Time, e.Page.PID, e.Page.VPN, e.FrameIndex)
	case FaultNoEviction:
		return fmt.Sprintf("t=%d P%d page %d -> FAULT, loaded into free frame %d",
			e.Time, e.Page.PID, e.Page.VPN, e.FrameIndex)
	case FaultWithEviction:
		return fmt.Sprintf("t=%d P%d page %d -> FAULT, evicted P%d page %d from frame %d (%s)",
			e.Time, e.Page.PID, e.Page.VPN,
			e.Evicted.PID, e.Evicted.VPN, e.FrameIndex, e.Reason)
	case ForcedEviction:
		return fmt.Sprintf("t=%d P%d page %d evicted from frame %d (%s)",
			e.Time, e.Evicted.PID, e.Evicted.VPN, e.FrameIndex, e.Reason)
	}

	return fmt.Sprintf("t=%d P%d page %d -> %s", e.Time, e.Page.PID, e.Page.VPN, e.Kind)
}
