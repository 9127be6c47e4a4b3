package engine

import (
	"context"

	"poolScope/internal/model"
)

// Unavailable stands in for an engine that could not be constructed, so the
// construction failure is reported as that engine's outcome.
type Unavailable struct {
	name string
	err  error
}

func NewUnavailable(name string, err error) *Unavailable {
	return &Unavailable{name: name, err: err}
}

func (u *Unavailable) Name() string {
	return u.name
}

func (u *Unavailable) Execute(context.Context, *model.Snapshot) (Report, error) {
	return nil, u.err
}
