package tracing

import (
	"context"
	"fmt"

	"github.com/sarchlab/memverify/datarecording"
)

// A Recording is the content of a database written by a DBRecorder.
type Recording struct {
	ExecInfo    []datarecording.ExecInfo
	Runs        []RunEntry
	Verdicts    []VerdictEntry
	NumStimulus int
}

// Mismatches returns the failing verdicts.
func (r *Recording) Mismatches() []VerdictEntry {
	var mismatches []VerdictEntry

	for _, v := range r.Verdicts {
		if !v.Matched {
			mismatches = append(mismatches, v)
		}
	}

	return mismatches
}

// ReadRecording loads a recording from a database file.
func ReadRecording(ctx context.Context, path string) (*Recording, error) {
	reader, err := datarecording.NewReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	for _, table := range []string{TableStimulus, TableVerdicts, TableRuns} {
		if !reader.HasTable(ctx, table) {
			return nil, fmt.Errorf("%s is not a memverify recording: "+
				"table %s is missing", path, table)
		}
	}

	reader.MapTable(TableStimulus, StimulusEntry{})
	reader.MapTable(TableVerdicts, VerdictEntry{})
	reader.MapTable(TableRuns, RunEntry{})

	rec := &Recording{}

	runs, _, err := reader.Query(ctx, TableRuns, datarecording.QueryParams{})
	if err != nil {
		return nil, err
	}

	for _, r := range runs {
		rec.Runs = append(rec.Runs, *r.(*RunEntry))
	}

	verdicts, _, err := reader.Query(ctx, TableVerdicts,
		datarecording.QueryParams{OrderBy: "Tick"})
	if err != nil {
		return nil, err
	}

	for _, v := range verdicts {
		rec.Verdicts = append(rec.Verdicts, *v.(*VerdictEntry))
	}

	_, rec.NumStimulus, err = reader.Query(ctx, TableStimulus,
		datarecording.QueryParams{Limit: 1})
	if err != nil {
		return nil, err
	}

	if !reader.HasTable(ctx, datarecording.TableExecInfo) {
		return rec, nil
	}

	reader.MapTable(datarecording.TableExecInfo, datarecording.ExecInfo{})

	infos, _, err := reader.Query(ctx, datarecording.TableExecInfo,
		datarecording.QueryParams{})
	if err != nil {
		return nil, err
	}

	for _, info := range infos {
		rec.ExecInfo = append(rec.ExecInfo, *info.(*datarecording.ExecInfo))
	}

	return rec, nil
}
