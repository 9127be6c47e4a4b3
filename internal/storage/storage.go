// Package storage writes run outcomes to report sinks.
package storage

import (
	"fmt"
	"io"

	"poolScope/internal/engine"
	"poolScope/internal/orchestrator"
)

const (
	FormatText  = "text"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"

	statusOK    = "ok"
	statusError = "error"
)

// Sink receives the outcome records of a run.
type Sink interface {
	PutRun(records []OutcomeRecord) error
}

// OutcomeRecord is the serialized form of one engine outcome.
type OutcomeRecord struct {
	RunID      string        `json:"run_id" yaml:"run_id"`
	Engine     string        `json:"engine" yaml:"engine"`
	Status     string        `json:"status" yaml:"status"`
	Summary    string        `json:"summary,omitempty" yaml:"summary,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS float64       `json:"duration_ms" yaml:"duration_ms"`
	Report     engine.Report `json:"report,omitempty" yaml:"report,omitempty"`
}

// Records converts a run result into records. Ranked reports are cut to the
// top entries when top > 0.
func Records(result *orchestrator.RunResult, top int) []OutcomeRecord {
	records := make([]OutcomeRecord, 0, len(result.Outcomes))
	for _, out := range result.Outcomes {
		rec := OutcomeRecord{
			RunID:      result.RunID,
			Engine:     out.Engine,
			Status:     statusOK,
			DurationMS: float64(out.Duration.Microseconds()) / 1000,
		}
		if out.Err != nil {
			rec.Status = statusError
			rec.Error = out.Err.Error()
		} else {
			report := out.Report
			if ranked, ok := report.(*engine.RankedReport); ok && top > 0 {
				report = ranked.Truncated(top)
			}
			rec.Report = report
			rec.Summary = report.Summary()
		}
		records = append(records, rec)
	}
	return records
}

// New builds a sink for a format. Text output goes to stdout when path is empty.
func New(format, path string, stdout io.Writer) (Sink, error) {
	switch format {
	case "", FormatText:
		if path == "" {
			return &TextSink{w: stdout}, nil
		}
		return &TextSink{path: path}, nil
	case FormatJSONL:
		if path == "" {
			return nil, fmt.Errorf("jsonl output requires an output path")
		}
		return NewJsonlStorage(path), nil
	case FormatYAML:
		if path == "" {
			return &YAMLSink{w: stdout}, nil
		}
		return &YAMLSink{path: path}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %s", format)
	}
}
