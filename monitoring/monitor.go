// Package monitoring turns a simulation into a small web server that
// renders frame occupancy and statistics, tails the event stream, and
// accepts access/terminate/reset requests from the outside.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/vmsim/monitoring/web"
	"github.com/sarchlab/vmsim/vm"
	"github.com/sarchlab/vmsim/vm/policy"
)

const eventTailLen = 256

// Monitor exposes one engine over HTTP. All engine calls go through one
// mutex, satisfying the engine's single-caller requirement even though
// the HTTP server is concurrent.
type Monitor struct {
	mu     sync.Mutex
	engine *vm.Engine

	portNumber  int
	openBrowser bool

	eventsLock sync.Mutex
	events     []tailEvent
}

type tailEvent struct {
	Time uint64 `json:"time"`
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitoring page in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterEngine registers the engine to monitor. The monitor hooks into
// the engine's event stream to keep a tail of recent events.
func (m *Monitor) RegisterEngine(e *vm.Engine) {
	m.engine = e
	e.AcceptHook(m)
}

// Sync runs f while holding the monitor's engine lock. Hosts that drive
// the engine themselves while the monitor is serving must route their
// engine calls through Sync.
func (m *Monitor) Sync(f func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f()
}

// Func implements vm.Hook, appending each outcome to the event tail.
func (m *Monitor) Func(ctx vm.HookCtx) {
	if ctx.Pos != vm.HookPosOutcome {
		return
	}

	evt, ok := ctx.Item.(vm.OutcomeEvent)
	if !ok {
		return
	}

	m.eventsLock.Lock()
	defer m.eventsLock.Unlock()

	m.events = append(m.events, tailEvent{
		Time: evt.Time,
		Kind: evt.Kind.String(),
		Text: evt.String(),
	})
	if len(m.events) > eventTailLen {
		m.events = m.events[len(m.events)-eventTailLen:]
	}
}

// StartServer starts the monitor as a web server, on the configured port
// or a random one.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/frames", m.listFrames)
	r.HandleFunc("/api/stats", m.listStats)
	r.HandleFunc("/api/events", m.listEvents)
	r.HandleFunc("/api/entries", m.listEntries)
	r.HandleFunc("/api/access", m.access)
	r.HandleFunc("/api/terminate", m.terminate)
	r.HandleFunc("/api/reset", m.reset)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.HandleFunc("/api/engine", m.engineState)
	r.PathPrefix("/").Handler(fServer)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	if m.openBrowser {
		_ = browser.OpenURL(url)
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

type frameRsp struct {
	Index          int    `json:"index"`
	Present        bool   `json:"present"`
	PID            uint32 `json:"pid"`
	VPN            int64  `json:"vpn"`
	LoadTime       uint64 `json:"load_time"`
	LastAccessTime uint64 `json:"last_access_time"`
}

func (m *Monitor) listFrames(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	frames := m.engine.Frames()
	m.mu.Unlock()

	rsp := make([]frameRsp, 0, len(frames))
	for _, f := range frames {
		rsp = append(rsp, frameRsp{
			Index:          f.Index,
			Present:        f.Present,
			PID:            uint32(f.Page.PID),
			VPN:            f.Page.VPN,
			LoadTime:       f.LoadTime,
			LastAccessTime: f.LastAccessTime,
		})
	}

	writeJSON(w, rsp)
}

type statsRsp struct {
	Policy          string  `json:"policy"`
	PageSizeKB      int     `json:"page_size_kb"`
	FrameCount      int     `json:"frame_count"`
	Now             uint64  `json:"now"`
	Accesses        uint64  `json:"accesses"`
	Hits            uint64  `json:"hits"`
	Faults          uint64  `json:"faults"`
	Evictions       uint64  `json:"evictions"`
	ForcedEvictions uint64  `json:"forced_evictions"`
	HitRate         float64 `json:"hit_rate"`
	FaultRate       float64 `json:"fault_rate"`
	FramesUsed      int     `json:"frames_used"`
}

func (m *Monitor) listStats(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	stats := m.engine.Stats()
	cfg := m.engine.Config()
	name := m.engine.PolicyName()
	now := m.engine.Now()
	used := 0
	for _, f := range m.engine.Frames() {
		if f.Present {
			used++
		}
	}
	m.mu.Unlock()

	writeJSON(w, statsRsp{
		Policy:          name,
		PageSizeKB:      cfg.PageSizeKB,
		FrameCount:      cfg.FrameCount,
		Now:             now,
		Accesses:        stats.Accesses,
		Hits:            stats.Hits,
		Faults:          stats.Faults,
		Evictions:       stats.Evictions,
		ForcedEvictions: stats.ForcedEvictions,
		HitRate:         stats.HitRate(),
		FaultRate:       stats.FaultRate(),
		FramesUsed:      used,
	})
}

func (m *Monitor) listEvents(w http.ResponseWriter, _ *http.Request) {
	m.eventsLock.Lock()
	events := make([]tailEvent, len(m.events))
	copy(events, m.events)
	m.eventsLock.Unlock()

	writeJSON(w, events)
}

type entryRsp struct {
	PID            uint32 `json:"pid"`
	VPN            int64  `json:"vpn"`
	Resident       bool   `json:"resident"`
	FrameIndex     int    `json:"frame_index"`
	LoadTime       uint64 `json:"load_time"`
	LastAccessTime uint64 `json:"last_access_time"`
	AccessCount    uint64 `json:"access_count"`
}

func (m *Monitor) listEntries(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	entries := m.engine.Entries()
	m.mu.Unlock()

	rsp := make([]entryRsp, 0, len(entries))
	for _, e := range entries {
		rsp = append(rsp, entryRsp{
			PID:            uint32(e.Page.PID),
			VPN:            e.Page.VPN,
			Resident:       e.Resident,
			FrameIndex:     e.FrameIndex,
			LoadTime:       e.LoadTime,
			LastAccessTime: e.LastAccessTime,
			AccessCount:    e.AccessCount,
		})
	}

	writeJSON(w, rsp)
}

func (m *Monitor) access(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseUint(r.FormValue("pid"), 10, 32)
	if err != nil {
		http.Error(w, "bad pid", http.StatusBadRequest)
		return
	}

	vpn, err := strconv.ParseInt(r.FormValue("vpn"), 10, 64)
	if err != nil {
		http.Error(w, "bad vpn", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	out, err := m.engine.HandleAccess(vm.AccessEvent{
		PID: vm.PID(pid),
		VPN: vpn,
	})
	m.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]any{
		"kind":  out.Kind.String(),
		"frame": out.FrameIndex,
		"text":  out.String(),
	})
}

func (m *Monitor) terminate(w http.ResponseWriter, r *http.Request) {
	pid, err := strconv.ParseUint(r.FormValue("pid"), 10, 32)
	if err != nil {
		http.Error(w, "bad pid", http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	events := m.engine.TerminateProcess(vm.PID(pid))
	m.mu.Unlock()

	writeJSON(w, map[string]any{"freed_frames": len(events)})
}

func (m *Monitor) reset(w http.ResponseWriter, r *http.Request) {
	var newPolicy vm.Policy
	if name := r.FormValue("policy"); name != "" {
		p, err := policy.Make(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		newPolicy = p
	}

	// Read, edit, and apply the configuration under one lock so
	// concurrent resets cannot interleave.
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := m.engine.Config()

	if v := r.FormValue("frames"); v != "" {
		frames, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad frame count", http.StatusBadRequest)
			return
		}
		cfg.FrameCount = frames
	}

	if v := r.FormValue("page_size_kb"); v != "" {
		pageSize, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "bad page size", http.StatusBadRequest)
			return
		}
		cfg.PageSizeKB = pageSize
	}

	var err error
	if newPolicy != nil {
		err = m.engine.SetPolicy(newPolicy, cfg)
	} else {
		err = m.engine.Reset(cfg)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.eventsLock.Lock()
	m.events = nil
	m.eventsLock.Unlock()

	writeJSON(w, map[string]any{"ok": true})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) engineState(w http.ResponseWriter, _ *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.engine)
	serializer.SetMaxDepth(1)

	if err := serializer.Serialize(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(v)
	dieOnErr(err)

	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
