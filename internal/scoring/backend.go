// Package scoring turns feature vectors into scalar pool scores.
package scoring

import (
	"context"
	"errors"
	"fmt"

	"poolScope/internal/features"
)

var (
	// ErrScoring matches per-vector scoring failures.
	ErrScoring = errors.New("scoring failed")

	// ErrBackendLoad matches failures to construct a backend.
	ErrBackendLoad = errors.New("scoring backend load failed")
)

// Backend scores feature vectors of a single schema.
// Implementations must be safe for concurrent use.
type Backend interface {
	Name() string
	Schema() string
	Score(ctx context.Context, vec features.Vector) (float64, error)
}

// Error is returned by Backend.Score for a rejected vector.
type Error struct {
	Backend string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrScoring, e.Backend, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrScoring, e.Err}
}

// LoadError is returned when a backend artifact cannot be loaded.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrBackendLoad, e.Path, e.Err)
}

func (e *LoadError) Unwrap() []error {
	return []error{ErrBackendLoad, e.Err}
}
