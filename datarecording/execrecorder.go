package datarecording

import (
	"os"
	"strings"
	"time"
)

// TableExecInfo is the table that an ExecRecorder writes to.
const TableExecInfo = "exec_info"

const execTimeLayout = "2006-01-02 15:04:05.000000000"

// ExecInfo is one property of the program execution.
type ExecInfo struct {
	Property string
	Value    string
}

// An ExecRecorder records how the program that produced a database was run.
type ExecRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

// NewExecRecorder creates the exec_info table in the recorder.
func NewExecRecorder(recorder DataRecorder) *ExecRecorder {
	recorder.CreateTable(TableExecInfo, ExecInfo{})

	return &ExecRecorder{recorder: recorder}
}

// Start captures the start time, the command line, and the working
// directory.
func (e *ExecRecorder) Start() {
	e.entries = append(e.entries,
		ExecInfo{"Start Time", time.Now().Format(execTimeLayout)},
		ExecInfo{"Command", strings.Join(os.Args, " ")},
	)

	cwd, err := os.Getwd()
	if err == nil {
		e.entries = append(e.entries, ExecInfo{"Working Directory", cwd})
	}
}

// Set adds a property of the execution.
func (e *ExecRecorder) Set(property, value string) {
	e.entries = append(e.entries, ExecInfo{property, value})
}

// End writes the captured properties together with the end time and flushes
// the recorder.
func (e *ExecRecorder) End() {
	e.entries = append(e.entries,
		ExecInfo{"End Time", time.Now().Format(execTimeLayout)})

	for _, entry := range e.entries {
		e.recorder.InsertData(TableExecInfo, entry)
	}

	e.entries = nil

	e.recorder.Flush()
}
