// Package orchestrator runs registered engines over one snapshot.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"poolScope/internal/engine"
	"poolScope/internal/model"
	"poolScope/internal/observability"
)

var (
	// ErrEngine matches every per-engine failure recorded in an Outcome.
	ErrEngine = errors.New("engine failed")

	// ErrNilSnapshot is recorded for every engine when Run gets no snapshot.
	ErrNilSnapshot = errors.New("snapshot is nil")

	// ErrNilEngine is recorded for a nil engine registration.
	ErrNilEngine = errors.New("engine is nil")

	errNoReport = errors.New("engine returned no report")
)

// EngineError wraps the failure of a single engine.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrEngine, e.Engine, e.Err)
}

func (e *EngineError) Unwrap() []error {
	return []error{ErrEngine, e.Err}
}

// Outcome is the result of one engine: a report or an error.
type Outcome struct {
	Engine   string
	Report   engine.Report
	Err      error
	Duration time.Duration
}

// Failed reports whether the engine failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// RunResult holds one outcome per registered engine, in registration order.
type RunResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

// Failed returns the number of failed engines.
func (r *RunResult) Failed() int {
	n := 0
	for _, out := range r.Outcomes {
		if out.Failed() {
			n++
		}
	}
	return n
}

// Options configures an Orchestrator.
type Options struct {
	// Parallelism > 1 runs up to that many engines at once.
	Parallelism int
	Logger      *zap.Logger
	Metrics     *observability.Metrics
}

// Orchestrator holds an ordered list of engines.
type Orchestrator struct {
	engines     []engine.Engine
	parallelism int
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// New creates an Orchestrator with no engines.
func New(opts Options) *Orchestrator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Orchestrator{
		parallelism: opts.Parallelism,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// AddEngine appends an engine. Duplicates are kept.
func (o *Orchestrator) AddEngine(e engine.Engine) {
	o.engines = append(o.engines, e)
}

// Engines returns the registered engine names in order.
func (o *Orchestrator) Engines() []string {
	names := make([]string, 0, len(o.engines))
	for _, e := range o.engines {
		name, _ := engineName(e)
		names = append(names, name)
	}
	return names
}

// engineName returns a placeholder for nil engines and for a Name that panics.
func engineName(e engine.Engine) (name string, err error) {
	if e == nil {
		return "<nil>", ErrNilEngine
	}
	defer func() {
		if r := recover(); r != nil {
			name = "<unnamed>"
			err = fmt.Errorf("name panic: %v", r)
		}
	}()
	return e.Name(), nil
}

// Run executes every engine exactly once against snap. Engine failures,
// including panics, are recorded in the matching Outcome and never stop
// the remaining engines.
func (o *Orchestrator) Run(ctx context.Context, snap *model.Snapshot) *RunResult {
	result := &RunResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Outcomes:  make([]Outcome, len(o.engines)),
	}
	logger := o.logger.With(zap.String("run_id", result.RunID))

	if snap == nil {
		for i, e := range o.engines {
			name, _ := engineName(e)
			result.Outcomes[i] = Outcome{
				Engine: name,
				Err:    &EngineError{Engine: name, Err: ErrNilSnapshot},
			}
		}
		result.FinishedAt = time.Now().UTC()
		logger.Error("run without snapshot", zap.Int("engines", len(o.engines)))
		return result
	}

	o.metrics.ObserveSnapshot(snap.TokenCount(), snap.PoolCount())
	logger.Info("run start",
		zap.Int("engines", len(o.engines)),
		zap.Int("parallelism", o.parallelism),
		zap.Int("tokens", snap.TokenCount()),
		zap.Int("pools", snap.PoolCount()),
	)

	if o.parallelism > 1 && len(o.engines) > 1 {
		var g errgroup.Group
		g.SetLimit(o.parallelism)
		for i, e := range o.engines {
			i, e := i, e
			g.Go(func() error {
				result.Outcomes[i] = o.runEngine(ctx, logger, e, snap)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, e := range o.engines {
			result.Outcomes[i] = o.runEngine(ctx, logger, e, snap)
		}
	}

	result.FinishedAt = time.Now().UTC()
	o.metrics.MarkRun(result.FinishedAt)
	logger.Info("run complete",
		zap.Int("engines", len(result.Outcomes)),
		zap.Int("failed", result.Failed()),
		zap.Duration("elapsed", result.FinishedAt.Sub(result.StartedAt)),
	)
	return result
}

func (o *Orchestrator) runEngine(ctx context.Context, logger *zap.Logger, e engine.Engine, snap *model.Snapshot) (out Outcome) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			out.Report = nil
			out.Err = &EngineError{Engine: out.Engine, Err: fmt.Errorf("panic: %v", r)}
		}
		out.Duration = time.Since(start)
		o.metrics.ObserveEngine(out.Engine, out.Failed(), out.Duration)

		if out.Failed() {
			logger.Warn("engine failed", zap.String("engine", out.Engine), zap.Duration("elapsed", out.Duration), zap.Error(out.Err))
			return
		}
		logger.Info("engine complete", zap.String("engine", out.Engine), zap.Duration("elapsed", out.Duration))
	}()

	name, err := engineName(e)
	out.Engine = name
	if err != nil {
		out.Err = &EngineError{Engine: name, Err: err}
		return out
	}

	report, err := e.Execute(ctx, snap)
	if err == nil && report == nil {
		err = errNoReport
	}
	if err != nil {
		out.Err = &EngineError{Engine: out.Engine, Err: err}
		return out
	}
	out.Report = report
	return out
}
