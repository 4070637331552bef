package simulation

import (
	"github.com/rs/xid"

	"github.com/sarchlab/vmsim/monitoring"
	"github.com/sarchlab/vmsim/recording"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/policy"
)

// Builder can be used to build a simulation.
type Builder struct {
	frameCount          int
	pageSizeKB          int
	policyName          string
	preserveAccessCount bool

	recordingOn    bool
	outputFileName string

	monitorOn   bool
	monitorPort int
	openBrowser bool
}

// MakeBuilder creates a new builder with the default configuration: ten
// 4 KB frames under LRU, no recording, no monitor.
func MakeBuilder() Builder {
	return Builder{
		frameCount: 10,
		pageSizeKB: 4,
		policyName: "LRU",
	}
}

// WithFrameCount sets the number of physical frames.
func (b Builder) WithFrameCount(frameCount int) Builder {
	b.frameCount = frameCount
	return b
}

// WithPageSizeKB sets the page size in kilobytes.
func (b Builder) WithPageSizeKB(pageSizeKB int) Builder {
	b.pageSizeKB = pageSizeKB
	return b
}

// WithPolicy sets the replacement policy by name.
func (b Builder) WithPolicy(name string) Builder {
	b.policyName = name
	return b
}

// WithPreservedAccessCounts makes pages keep their access counts across
// evictions.
func (b Builder) WithPreservedAccessCounts() Builder {
	b.preserveAccessCount = true
	return b
}

// WithRecording enables recording the event stream into SQLite.
func (b Builder) WithRecording() Builder {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitor enables the web monitor.
func (b Builder) WithMonitor() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page in the default browser.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	p, err := policy.Make(b.policyName)
	if err != nil {
		return nil, err
	}

	engine, err := vm.NewEngine(vm.Config{
		PageSizeKB:          b.pageSizeKB,
		FrameCount:          b.frameCount,
		PreserveAccessCount: b.preserveAccessCount,
	}, p)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:     xid.New().String(),
		engine: engine,
	}

	if b.recordingOn {
		outputPath := b.outputFileName
		if outputPath == "" {
			outputPath = "vmsim_" + s.id
		}

		s.recorder = recording.NewRecorder(outputPath)
		s.sink = recording.NewEventSink(s.recorder)
		engine.AcceptHook(s.sink)
	}

	if b.monitorOn {
		s.monitor = monitoring.NewMonitor()
		if b.monitorPort > 0 {
			s.monitor.WithPortNumber(b.monitorPort)
		}
		if b.openBrowser {
			s.monitor.WithBrowser()
		}
		s.monitor.RegisterEngine(engine)
		s.monitor.StartServer()
	}

	return s, nil
}
