package recording

import (
	"github.com/sarchlab/vmsim/vm"
)

const eventTable = "outcome_events"

// EventRow is the flattened form of one OutcomeEvent as stored in SQLite.
type EventRow struct {
	Time       uint64
	Kind       string
	PID        uint32
	VPN        int64
	FrameIndex int
	EvictedPID uint32
	EvictedVPN int64
	Evicted    bool
	Reason     string
}

// RunRow summarizes one finished run.
type RunRow struct {
	RunID           string
	Policy          string
	PageSizeKB      int
	FrameCount      int
	Accesses        uint64
	Hits            uint64
	Faults          uint64
	Evictions       uint64
	ForcedEvictions uint64
	FaultRate       float64
}

// An EventSink is an engine hook that records every OutcomeEvent.
type EventSink struct {
	recorder Recorder
}

// NewEventSink creates a sink writing into the given recorder.
func NewEventSink(recorder Recorder) *EventSink {
	s := &EventSink{recorder: recorder}

	s.recorder.CreateTable(eventTable, EventRow{})

	return s
}

// Func records the outcome carried by the hook context.
func (s *EventSink) Func(ctx vm.HookCtx) {
	if ctx.Pos != vm.HookPosOutcome {
		return
	}

	evt, ok := ctx.Item.(vm.OutcomeEvent)
	if !ok {
		return
	}

	s.recorder.InsertData(eventTable, EventRow{
		Time:       evt.Time,
		Kind:       evt.Kind.String(),
		PID:        uint32(evt.Page.PID),
		VPN:        evt.Page.VPN,
		FrameIndex: evt.FrameIndex,
		EvictedPID: uint32(evt.Evicted.PID),
		EvictedVPN: evt.Evicted.VPN,
		Evicted:    evt.EvictedValid,
		Reason:     evt.Reason,
	})
}

// WriteRunSummary appends one summary row for a finished run. The runs
// table is created on first use.
func (s *EventSink) WriteRunSummary(row RunRow) {
	found := false
	for _, name := range s.recorder.ListTables() {
		if name == "runs" {
			found = true
		}
	}

	if !found {
		s.recorder.CreateTable("runs", RunRow{})
	}

	s.recorder.InsertData("runs", row)
	s.recorder.Flush()
}
