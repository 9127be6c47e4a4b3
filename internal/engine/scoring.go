package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"poolScope/internal/features"
	"poolScope/internal/model"
	"poolScope/internal/observability"
	"poolScope/internal/scoring"
)

var (
	// ErrNoBackend is returned by a scoring engine built without a backend.
	ErrNoBackend = errors.New("scoring backend is nil")

	// ErrSchemaMismatch is returned when the extractor and backend disagree
	// on the feature schema.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// ScoredPool is a scored reference into the snapshot.
type ScoredPool struct {
	Score float64     `json:"score" yaml:"score"`
	Index int         `json:"index" yaml:"index"`
	Pool  *model.Pool `json:"pool" yaml:"pool"`
}

// PoolSkip records a pool left out of the ranking.
type PoolSkip struct {
	Index   int    `json:"index" yaml:"index"`
	DexName string `json:"dexName" yaml:"dexName"`
	Chain   string `json:"chain" yaml:"chain"`
	Reason  string `json:"reason" yaml:"reason"`
}

// RankedReport lists every scored pool, best first.
type RankedReport struct {
	Backend string       `json:"backend" yaml:"backend"`
	Schema  string       `json:"schema" yaml:"schema"`
	Ranked  []ScoredPool `json:"ranked" yaml:"ranked"`
	Skipped []PoolSkip   `json:"skipped" yaml:"skipped"`
}

// Top returns at most n leading entries; n <= 0 returns the full ranking.
func (r *RankedReport) Top(n int) []ScoredPool {
	if n <= 0 || n >= len(r.Ranked) {
		return r.Ranked
	}
	return r.Ranked[:n]
}

// Truncated returns a copy of the report limited to the top n entries.
func (r *RankedReport) Truncated(n int) *RankedReport {
	out := *r
	out.Ranked = r.Top(n)
	return &out
}

func (r *RankedReport) Summary() string {
	if len(r.Ranked) == 0 {
		return fmt.Sprintf("no pools ranked by %s (%d skipped)", r.Backend, len(r.Skipped))
	}
	best := r.Ranked[0]
	return fmt.Sprintf("ranked %d pools by %s (%d skipped); best %s on %s (#%d) score=%.6g",
		len(r.Ranked), r.Backend, len(r.Skipped), best.Pool.DexName, best.Pool.Chain, best.Index, best.Score)
}

// ScoringOptions configures a Scoring engine.
type ScoringOptions struct {
	Name      string
	Extractor features.Extractor
	Backend   scoring.Backend
	Logger    *zap.Logger
	Metrics   *observability.Metrics
}

// Scoring ranks every pool with a scoring backend.
type Scoring struct {
	name      string
	extractor features.Extractor
	backend   scoring.Backend
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewScoring builds a scoring engine. A nil extractor defaults to pool-v1.
func NewScoring(opts ScoringOptions) *Scoring {
	if opts.Name == "" {
		opts.Name = "scoring"
	}
	if opts.Extractor == nil {
		opts.Extractor = features.V1{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Scoring{
		name:      opts.Name,
		extractor: opts.Extractor,
		backend:   opts.Backend,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

func (s *Scoring) Name() string {
	return s.name
}

// Execute scores each pool. A pool whose score call fails is skipped and
// listed in the report; the engine itself only fails on a missing backend,
// a schema mismatch or context cancellation.
func (s *Scoring) Execute(ctx context.Context, snap *model.Snapshot) (Report, error) {
	if s.backend == nil {
		return nil, ErrNoBackend
	}
	schema := s.extractor.Schema().Name
	if schema != s.backend.Schema() {
		return nil, fmt.Errorf("%w: extractor %s, backend %s expects %s",
			ErrSchemaMismatch, schema, s.backend.Name(), s.backend.Schema())
	}

	pools := snap.Pools()
	report := &RankedReport{
		Backend: s.backend.Name(),
		Schema:  schema,
		Ranked:  make([]ScoredPool, 0, len(pools)),
		Skipped: make([]PoolSkip, 0),
	}

	for i := range pools {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pool := snap.Pool(i)
		score, err := s.backend.Score(ctx, s.extractor.Extract(*pool))
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.Warn("pool skipped",
				zap.String("engine", s.name),
				zap.Int("pool_index", i),
				zap.String("dex", pool.DexName),
				zap.String("chain", pool.Chain),
				zap.Error(err),
			)
			report.Skipped = append(report.Skipped, PoolSkip{
				Index:   i,
				DexName: pool.DexName,
				Chain:   pool.Chain,
				Reason:  err.Error(),
			})
			continue
		}
		report.Ranked = append(report.Ranked, ScoredPool{Score: score, Index: i, Pool: pool})
	}

	sort.SliceStable(report.Ranked, func(i, j int) bool {
		return report.Ranked[i].Score > report.Ranked[j].Score
	})

	s.metrics.ObserveScoring(s.name, s.backend.Name(), len(report.Ranked), len(report.Skipped))
	s.logger.Debug("scoring complete",
		zap.String("engine", s.name),
		zap.Int("ranked", len(report.Ranked)),
		zap.Int("skipped", len(report.Skipped)),
	)

	return report, nil
}
