// Package monitoring turns a running testbench into a web server, so that the
// run can be observed and paused from a browser.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/memverify/monitoring/web"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/sim"
)

// A Clock is the part of the testbench clock that the server controls.
type Clock interface {
	Now() sim.VTimeInCycle
	Freq() sim.Freq
	Pause()
	Continue()
	IsPaused() bool
}

// A Server provides the monitoring web API of a run.
type Server struct {
	clock      Clock
	components []sim.Component
	buffers    []sim.Buffer
	summary    func() any
	portNumber int

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	hub        *streamHub
	httpServer *http.Server
	url        string
}

// NewServer creates a new Server
func NewServer() *Server {
	return &Server{hub: newStreamHub()}
}

// WithPortNumber sets the port number of the server. Ports below 1000 select a
// random port.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber < 1000 {
		if portNumber != 0 {
			fmt.Fprintf(os.Stderr,
				"Port number %d is assigned to the monitoring server, "+
					"which is not allowed. Using a random port instead.\n",
				portNumber)
		}

		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// RegisterClock registers the clock of the testbench.
func (s *Server) RegisterClock(c Clock) {
	s.clock = c
}

// RegisterComponent registers a component to be inspected.
func (s *Server) RegisterComponent(c sim.Component) {
	s.components = append(s.components, c)
}

// RegisterBuffer registers a buffer to be watched.
func (s *Server) RegisterBuffer(b sim.Buffer) {
	s.buffers = append(s.buffers, b)
}

// RegisterSummary sets the function that reports the run summary.
func (s *Server) RegisterSummary(f func() any) {
	s.summary = f
}

// CreateProgressBar creates a new progress bar.
func (s *Server) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := NewProgressBar(name, total)

	s.progressBarsLock.Lock()
	defer s.progressBarsLock.Unlock()

	s.progressBars = append(s.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (s *Server) CompleteProgressBar(pb *ProgressBar) {
	s.progressBarsLock.Lock()
	defer s.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(s.progressBars))
	for _, b := range s.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	s.progressBars = newBars
}

type streamMsg struct {
	Kind     string `json:"kind"`
	Tick     uint64 `json:"tick"`
	Expected uint8  `json:"expected"`
	Observed uint8  `json:"observed"`
	Matched  bool   `json:"matched"`
}

// Func streams the verdicts to the websocket clients.
func (s *Server) Func(ctx sim.HookCtx) {
	if ctx.Pos != scoreboard.HookPosVerdict || s.hub.numClients() == 0 {
		return
	}

	v := ctx.Item.(scoreboard.Verdict)
	s.hub.broadcast(streamMsg{
		Kind:     "verdict",
		Tick:     uint64(v.Tick),
		Expected: v.Expected,
		Observed: v.Observed,
		Matched:  v.Matched,
	})
}

// Handler returns the router of the server.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", s.pause)
	r.HandleFunc("/api/continue", s.resume)
	r.HandleFunc("/api/now", s.now)
	r.HandleFunc("/api/list_components", s.listComponents)
	r.HandleFunc("/api/component/{name}", s.listComponentDetails)
	r.HandleFunc("/api/buffers", s.listBuffers)
	r.HandleFunc("/api/progress", s.listProgressBars)
	r.HandleFunc("/api/summary", s.reportSummary)
	r.HandleFunc("/api/resource", s.listResources)
	r.HandleFunc("/api/profile", s.collectProfile)
	r.HandleFunc("/api/stream", s.hub.serve)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the server in the background and returns its URL.
func (s *Server) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(s.portNumber))
	if err != nil {
		return "", err
	}

	s.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring testbench with %s\n", s.url)

	go func() {
		err := s.httpServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Println(err)
		}
	}()

	return s.url, nil
}

// OpenBrowser opens the dashboard of a started server in the default
// browser.
func (s *Server) OpenBrowser() error {
	if s.url == "" {
		return errors.New("monitoring server is not started")
	}

	return browser.OpenURL(s.url)
}

// Shutdown stops the server and disconnects the stream clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) clockOr503(w http.ResponseWriter) Clock {
	if s.clock == nil {
		http.Error(w, "no clock registered", http.StatusServiceUnavailable)
	}

	return s.clock
}

func (s *Server) pause(w http.ResponseWriter, _ *http.Request) {
	c := s.clockOr503(w)
	if c == nil {
		return
	}

	c.Pause()
	w.WriteHeader(http.StatusOK)
}

func (s *Server) resume(w http.ResponseWriter, _ *http.Request) {
	c := s.clockOr503(w)
	if c == nil {
		return
	}

	c.Continue()
	w.WriteHeader(http.StatusOK)
}

type nowRsp struct {
	Tick   uint64  `json:"tick"`
	Now    float64 `json:"now"`
	Paused bool    `json:"paused"`
}

func (s *Server) now(w http.ResponseWriter, _ *http.Request) {
	c := s.clockOr503(w)
	if c == nil {
		return
	}

	tick := c.Now()

	writeJSON(w, nowRsp{
		Tick:   uint64(tick),
		Now:    float64(c.Freq().Time(tick)),
		Paused: c.IsPaused(),
	})
}

func (s *Server) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(s.components))
	for _, c := range s.components {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (s *Server) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	component := s.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	if err != nil {
		log.Println(err)
	}
}

func (s *Server) findComponentOr404(
	w http.ResponseWriter,
	name string,
) sim.Component {
	for _, c := range s.components {
		if c.Name() == name {
			return c
		}
	}

	http.Error(w, "Component not found", http.StatusNotFound)

	return nil
}

type bufferRsp struct {
	Buffer string `json:"buffer"`
	Level  int    `json:"level"`
	Cap    int    `json:"cap"`
}

func (s *Server) listBuffers(w http.ResponseWriter, _ *http.Request) {
	rsp := make([]bufferRsp, 0, len(s.buffers))
	for _, b := range s.buffers {
		rsp = append(rsp, bufferRsp{
			Buffer: b.Name(),
			Level:  b.Size(),
			Cap:    b.Capacity(),
		})
	}

	sort.SliceStable(rsp, func(i, j int) bool {
		return rsp[i].Level > rsp[j].Level
	})

	writeJSON(w, rsp)
}

type progressRsp struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

func (s *Server) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	s.progressBarsLock.Lock()
	bars := make([]progressRsp, 0, len(s.progressBars))
	for _, b := range s.progressBars {
		b.Lock()
		bars = append(bars, progressRsp{
			ID:         b.ID,
			Name:       b.Name,
			StartTime:  b.StartTime,
			Total:      b.Total,
			Finished:   b.Finished,
			InProgress: b.InProgress,
		})
		b.Unlock()
	}
	s.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

func (s *Server) reportSummary(w http.ResponseWriter, _ *http.Request) {
	if s.summary == nil {
		http.Error(w, "no summary registered", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, s.summary())
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (s *Server) collectProfile(w http.ResponseWriter, r *http.Request) {
	duration := time.Second
	if v := r.URL.Query().Get("ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			http.Error(w, "invalid duration", http.StatusBadRequest)
			return
		}

		duration = time.Duration(ms) * time.Millisecond
	}

	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(duration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	_, err = w.Write(data)
	if err != nil {
		log.Println(err)
	}
}
