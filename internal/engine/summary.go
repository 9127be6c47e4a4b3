package engine

import (
	"context"
	"fmt"

	"poolScope/internal/model"
)

// SummaryReport holds snapshot counts.
type SummaryReport struct {
	Tokens int `json:"tokens" yaml:"tokens"`
	Pools  int `json:"pools" yaml:"pools"`
}

func (r *SummaryReport) Summary() string {
	return fmt.Sprintf("%d tokens, %d pools", r.Tokens, r.Pools)
}

// Summary reports token and pool counts.
type Summary struct{}

func NewSummary() *Summary {
	return &Summary{}
}

func (*Summary) Name() string {
	return "summary"
}

func (*Summary) Execute(_ context.Context, snap *model.Snapshot) (Report, error) {
	return &SummaryReport{
		Tokens: snap.TokenCount(),
		Pools:  snap.PoolCount(),
	}, nil
}
