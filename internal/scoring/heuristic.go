package scoring

import (
	"context"
	"fmt"

	"poolScope/internal/features"
)

const (
	// DefaultFeeDenominator treats fees as basis points.
	DefaultFeeDenominator = 10_000

	// DefaultReserveScale expresses scores in millions of raw reserve units.
	DefaultReserveScale = 1_000_000

	heuristicName = "heuristic"
)

// Heuristic scores pool-v1 vectors as
// (reserve0 + reserve1) * (1 - fee/FeeDenominator) / ReserveScale.
type Heuristic struct {
	FeeDenominator float64
	ReserveScale   float64
}

// NewHeuristic returns a heuristic with the default fee and reserve scaling.
func NewHeuristic() *Heuristic {
	return &Heuristic{
		FeeDenominator: DefaultFeeDenominator,
		ReserveScale:   DefaultReserveScale,
	}
}

func (h *Heuristic) Name() string {
	return heuristicName
}

func (h *Heuristic) Schema() string {
	return features.SchemaV1.Name
}

// Score never fails for a vector of pool-v1 length. Empty reserves score 0.
func (h *Heuristic) Score(_ context.Context, vec features.Vector) (float64, error) {
	if len(vec) != features.SchemaV1.Len() {
		return 0, &Error{
			Backend: heuristicName,
			Err:     fmt.Errorf("expected %d features, got %d", features.SchemaV1.Len(), len(vec)),
		}
	}

	reserves := vec[0] + vec[1]
	if reserves == 0 {
		return 0, nil
	}

	feeDenominator := h.FeeDenominator
	if feeDenominator <= 0 {
		feeDenominator = DefaultFeeDenominator
	}
	reserveScale := h.ReserveScale
	if reserveScale <= 0 {
		reserveScale = DefaultReserveScale
	}

	return reserves * (1 - vec[2]/feeDenominator) / reserveScale, nil
}
