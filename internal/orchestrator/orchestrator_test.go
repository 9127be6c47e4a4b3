package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"poolScope/internal/engine"
	"poolScope/internal/model"
	"poolScope/internal/observability"
	"poolScope/internal/scoring"
)

type textReport string

func (r textReport) Summary() string { return string(r) }

// recordingEngine records every call it receives.
type recordingEngine struct {
	name  string
	err   error
	panic bool
	delay time.Duration

	mu    sync.Mutex
	calls int
	seen  []*model.Snapshot
}

func (e *recordingEngine) Name() string { return e.name }

func (e *recordingEngine) Execute(_ context.Context, snap *model.Snapshot) (engine.Report, error) {
	e.mu.Lock()
	e.calls++
	e.seen = append(e.seen, snap)
	e.mu.Unlock()

	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.panic {
		panic("engine exploded")
	}
	if e.err != nil {
		return nil, e.err
	}
	return textReport(e.name + " ok"), nil
}

func testSnapshot() *model.Snapshot {
	return model.NewSnapshot(
		[]model.Token{{Symbol: "ETH", Decimals: 18, Address: "0x1"}},
		[]model.Pool{{DexName: "UniV3", Chain: "eth", Token0: "0x1", Token1: "0x2", Reserve0: 1000000, Reserve1: 2000000, Fee: 3000}},
	)
}

func TestOrchestrator_Run_OrderAndIsolation(t *testing.T) {
	engines := []*recordingEngine{
		{name: "first"},
		{name: "second", err: errors.New("bad input")},
		{name: "third", panic: true},
		{name: "fourth"},
	}
	orch := New(Options{Logger: zap.NewNop()})
	for _, e := range engines {
		orch.AddEngine(e)
	}
	snap := testSnapshot()

	result := orch.Run(context.Background(), snap)

	require.Len(t, result.Outcomes, 4)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 2, result.Failed())
	for i, e := range engines {
		assert.Equal(t, e.name, result.Outcomes[i].Engine)
		assert.Equal(t, 1, e.calls, e.name)
		require.Len(t, e.seen, 1)
		assert.Same(t, snap, e.seen[0])
	}

	assert.Equal(t, textReport("first ok"), result.Outcomes[0].Report)
	assert.ErrorIs(t, result.Outcomes[1].Err, ErrEngine)
	assert.Contains(t, result.Outcomes[1].Err.Error(), "bad input")
	assert.ErrorIs(t, result.Outcomes[2].Err, ErrEngine)
	assert.Contains(t, result.Outcomes[2].Err.Error(), "engine exploded")
	assert.Nil(t, result.Outcomes[2].Report)
	assert.False(t, result.Outcomes[3].Failed())
}

func TestOrchestrator_Run_Parallel(t *testing.T) {
	orch := New(Options{Parallelism: 4})
	engines := make([]*recordingEngine, 0, 8)
	for i := 0; i < 8; i++ {
		e := &recordingEngine{name: fmt.Sprintf("e%d", i), delay: time.Duration(8-i) * time.Millisecond}
		if i == 5 {
			e.err = errors.New("boom")
		}
		engines = append(engines, e)
		orch.AddEngine(e)
	}

	result := orch.Run(context.Background(), testSnapshot())

	require.Len(t, result.Outcomes, 8)
	for i, e := range engines {
		assert.Equal(t, e.name, result.Outcomes[i].Engine)
		assert.Equal(t, 1, e.calls)
	}
	assert.Equal(t, 1, result.Failed())
	assert.True(t, result.Outcomes[5].Failed())
}

func TestOrchestrator_Run_DuplicateEngines(t *testing.T) {
	e := &recordingEngine{name: "dup"}
	orch := New(Options{})
	orch.AddEngine(e)
	orch.AddEngine(e)

	result := orch.Run(context.Background(), testSnapshot())

	assert.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, e.calls)
	assert.Equal(t, []string{"dup", "dup"}, orch.Engines())
}

func TestOrchestrator_Run_NoEngines(t *testing.T) {
	result := New(Options{}).Run(context.Background(), testSnapshot())

	assert.Empty(t, result.Outcomes)
	assert.Equal(t, 0, result.Failed())
}

func TestOrchestrator_Run_NilSnapshot(t *testing.T) {
	e := &recordingEngine{name: "summary"}
	orch := New(Options{})
	orch.AddEngine(e)

	result := orch.Run(context.Background(), nil)

	require.Len(t, result.Outcomes, 1)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrNilSnapshot)
	assert.Equal(t, 0, e.calls)
}

func TestOrchestrator_Run_NilReport(t *testing.T) {
	orch := New(Options{})
	orch.AddEngine(nilReportEngine{})

	result := orch.Run(context.Background(), testSnapshot())

	assert.ErrorIs(t, result.Outcomes[0].Err, ErrEngine)
}

type nilReportEngine struct{}

func (nilReportEngine) Name() string { return "nil-report" }

func (nilReportEngine) Execute(context.Context, *model.Snapshot) (engine.Report, error) {
	return nil, nil
}

type panicNameEngine struct{}

func (panicNameEngine) Name() string { panic("no name") }

func (panicNameEngine) Execute(context.Context, *model.Snapshot) (engine.Report, error) {
	return textReport("unreachable"), nil
}

func TestOrchestrator_Run_BadRegistrations(t *testing.T) {
	after := &recordingEngine{name: "after"}
	orch := New(Options{})
	orch.AddEngine(nil)
	orch.AddEngine(panicNameEngine{})
	orch.AddEngine(after)

	assert.Equal(t, []string{"<nil>", "<unnamed>", "after"}, orch.Engines())

	result := orch.Run(context.Background(), testSnapshot())

	require.Len(t, result.Outcomes, 3)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrNilEngine)
	assert.ErrorIs(t, result.Outcomes[0].Err, ErrEngine)
	assert.Equal(t, "<unnamed>", result.Outcomes[1].Engine)
	assert.ErrorIs(t, result.Outcomes[1].Err, ErrEngine)
	assert.Nil(t, result.Outcomes[1].Report)
	assert.NoError(t, result.Outcomes[2].Err)
	assert.Equal(t, 1, after.calls)
}

func TestOrchestrator_Run_BadRegistrationsParallel(t *testing.T) {
	orch := New(Options{Parallelism: 2})
	orch.AddEngine(nil)
	orch.AddEngine(panicNameEngine{})

	result := orch.Run(context.Background(), testSnapshot())

	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, 2, result.Failed())
}

func TestOrchestrator_Run_BuiltinEngines(t *testing.T) {
	metrics := observability.NewMetrics("test")
	orch := New(Options{Metrics: metrics})
	orch.AddEngine(engine.NewSummary())
	orch.AddEngine(engine.NewTopPool())
	orch.AddEngine(engine.NewUnavailable("model-scoring", &scoring.LoadError{Path: "missing.json", Err: errors.New("not found")}))
	orch.AddEngine(engine.NewScoring(engine.ScoringOptions{Backend: scoring.NewHeuristic(), Metrics: metrics}))

	result := orch.Run(context.Background(), testSnapshot())

	require.Len(t, result.Outcomes, 4)
	assert.Equal(t, "1 tokens, 1 pools", result.Outcomes[0].Report.Summary())
	assert.Equal(t, "3000000", result.Outcomes[1].Report.(*engine.TopPoolReport).ReserveSum)
	assert.ErrorIs(t, result.Outcomes[2].Err, scoring.ErrBackendLoad)
	assert.ErrorIs(t, result.Outcomes[2].Err, ErrEngine)

	ranked := result.Outcomes[3].Report.(*engine.RankedReport)
	require.Len(t, ranked.Ranked, 1)
	assert.InDelta(t, 2.1, ranked.Ranked[0].Score, 1e-12)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EngineRuns.WithLabelValues("model-scoring", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EngineRuns.WithLabelValues("summary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PoolsScored.WithLabelValues("scoring", "heuristic")))
}
