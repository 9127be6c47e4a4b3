package scoring

import (
	"context"
	"fmt"
	"math"

	"poolScope/internal/features"
	"poolScope/internal/inference"
)

const modelName = "model"

// ModelBackend scores vectors with a loaded inference model.
type ModelBackend struct {
	path  string
	model *inference.Model
}

// LoadModel loads a model artifact. A missing or corrupt artifact returns a
// *LoadError; the load is not retried.
func LoadModel(path string) (*ModelBackend, error) {
	if path == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("model path is required")}
	}
	m, err := inference.Load(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &ModelBackend{path: path, model: m}, nil
}

// NewModelBackend wraps an already loaded model.
func NewModelBackend(m *inference.Model) *ModelBackend {
	return &ModelBackend{model: m}
}

func (b *ModelBackend) Name() string {
	return modelName
}

func (b *ModelBackend) Schema() string {
	return b.model.Schema()
}

// Path returns the artifact path the backend was loaded from.
func (b *ModelBackend) Path() string {
	return b.path
}

func (b *ModelBackend) Score(ctx context.Context, vec features.Vector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	score, err := b.model.Predict(vec)
	if err != nil {
		return 0, &Error{Backend: modelName, Err: err}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, &Error{Backend: modelName, Err: fmt.Errorf("non-finite output %v", score)}
	}
	return score, nil
}
