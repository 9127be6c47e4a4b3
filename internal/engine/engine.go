// Package engine defines the analysis passes run over a market snapshot.
package engine

import (
	"context"

	"poolScope/internal/model"
)

// Report is an engine-defined result. Reports are serializable with
// encoding/json and yaml.v3.
type Report interface {
	// Summary renders the report as one line of text.
	Summary() string
}

// Engine is an analysis pass over a snapshot. Engines must not modify the
// snapshot; the same snapshot is shared by every engine of a run.
type Engine interface {
	Name() string
	Execute(ctx context.Context, snap *model.Snapshot) (Report, error)
}
