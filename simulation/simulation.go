// Package simulation assembles one paging-simulation run: the engine, the
// optional SQLite recorder, and the optional web monitor.
package simulation

import (
	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/recording"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/workload"
)

// A Simulation provides the services required to run one paging
// simulation.
type Simulation struct {
	id string

	engine   *vm.Engine
	recorder recording.Recorder
	sink     *recording.EventSink
	monitor  *monitoring.Monitor
}

// ID returns the unique identifier of this run.
func (s *Simulation) ID() string {
	return s.id
}

// Engine returns the engine used in the simulation.
func (s *Simulation) Engine() *vm.Engine {
	return s.engine
}

// Monitor returns the web monitor, or nil when monitoring is disabled.
func (s *Simulation) Monitor() *monitoring.Monitor {
	return s.monitor
}

// Run drives a reference string through the engine. Every access carries
// the remaining references as a lookahead hint, so Optimal sees the true
// future of the trace.
func (s *Simulation) Run(refs []workload.Ref) ([]vm.OutcomeEvent, error) {
	future := make([]vm.Page, len(refs))
	for i, ref := range refs {
		future[i] = vm.Page{PID: ref.PID, VPN: ref.VPN}
	}

	events := make([]vm.OutcomeEvent, 0, len(refs))
	for i, ref := range refs {
		out, err := s.engine.HandleAccess(vm.AccessEvent{
			PID:    ref.PID,
			VPN:    ref.VPN,
			Future: future[i+1:],
		})
		if err != nil {
			return events, err
		}

		events = append(events, out)
	}

	return events, nil
}

// Terminate finalizes the run, writing the summary row and closing the
// recorder.
func (s *Simulation) Terminate() {
	if s.recorder == nil {
		return
	}

	stats := s.engine.Stats()
	cfg := s.engine.Config()

	s.sink.WriteRunSummary(recording.RunRow{
		RunID:           s.id,
		Policy:          s.engine.PolicyName(),
		PageSizeKB:      cfg.PageSizeKB,
		FrameCount:      cfg.FrameCount,
		Accesses:        stats.Accesses,
		Hits:            stats.Hits,
		Faults:          stats.Faults,
		Evictions:       stats.Evictions,
		ForcedEvictions: stats.ForcedEvictions,
		FaultRate:       stats.FaultRate(),
	})

	s.recorder.Close()
}
