package tracing

import (
	"sync"

	"github.com/sarchlab/memverify/datarecording"
	"github.com/sarchlab/memverify/driver"
	"github.com/sarchlab/memverify/scoreboard"
	"github.com/sarchlab/memverify/signal"
	"github.com/sarchlab/memverify/sim"
	"github.com/sarchlab/memverify/txn"
)

// The tables that a DBRecorder writes.
const (
	TableStimulus = "stimulus"
	TableVerdicts = "verdicts"
	TableRuns     = "runs"
)

// StimulusEntry is a row of the stimulus table.
type StimulusEntry struct {
	RunID string
	Tick  uint64
	Reset bool
	Write bool
	Read  bool
	Data  uint8
}

// VerdictEntry is a row of the verdicts table.
type VerdictEntry struct {
	RunID    string
	Tick     uint64
	IssuedAt uint64
	Expected uint8
	Observed uint8
	Matched  bool
}

// RunEntry is a row of the runs table.
type RunEntry struct {
	RunID       string
	Mode        string
	Seed        int64
	Ticks       uint64
	Comparisons int
	Mismatches  int
	Uncompared  uint64
	Passed      bool
	Fatal       string
	Summary     string
}

// A DBRecorder is a hook that stores the driven stimulus and the verdicts of
// a run into a DataRecorder.
type DBRecorder struct {
	lock    sync.Mutex
	backend datarecording.DataRecorder
	runID   string
}

// NewDBRecorder creates the tables in the backend and returns a recorder that
// tags every row with the run ID.
func NewDBRecorder(
	backend datarecording.DataRecorder,
	runID string,
) *DBRecorder {
	backend.CreateTable(TableStimulus, StimulusEntry{})
	backend.CreateTable(TableVerdicts, VerdictEntry{})
	backend.CreateTable(TableRuns, RunEntry{})

	return &DBRecorder{
		backend: backend,
		runID:   runID,
	}
}

// Func records driven transactions and verdicts.
func (r *DBRecorder) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case driver.HookPosDrive:
		r.recordStimulus(ctx)
	case scoreboard.HookPosVerdict:
		r.recordVerdict(ctx.Item.(scoreboard.Verdict))
	}
}

func (r *DBRecorder) recordStimulus(ctx sim.HookCtx) {
	tx := ctx.Item.(txn.Transaction)
	in := ctx.Detail.(signal.Inputs)

	r.lock.Lock()
	defer r.lock.Unlock()

	r.backend.InsertData(TableStimulus, StimulusEntry{
		RunID: r.runID,
		Tick:  uint64(ctx.Now),
		Reset: in.InReset(),
		Write: tx.Write,
		Read:  tx.Read,
		Data:  tx.Data,
	})
}

func (r *DBRecorder) recordVerdict(v scoreboard.Verdict) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.backend.InsertData(TableVerdicts, VerdictEntry{
		RunID:    r.runID,
		Tick:     uint64(v.Tick),
		IssuedAt: uint64(v.IssuedAt),
		Expected: v.Expected,
		Observed: v.Observed,
		Matched:  v.Matched,
	})
}

// RecordRun stores the outcome of the run and flushes the backend.
func (r *DBRecorder) RecordRun(entry RunEntry) {
	r.lock.Lock()
	defer r.lock.Unlock()

	entry.RunID = r.runID
	r.backend.InsertData(TableRuns, entry)
	r.backend.Flush()
}
