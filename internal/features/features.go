// Package features maps pools to numeric feature vectors.
//
// A vector's layout is identified by its schema name. Scoring backends declare
// the schema they were built for, so a layout change always comes with a new
// schema name rather than a silent reordering.
//
// Reserves and fees are converted from uint64 to float64, which loses
// precision above 2^53. That loss is accepted and never reported as an error.
package features

import (
	"fmt"
	"math"

	"poolScope/internal/model"
)

// Schema describes the layout of a feature vector.
type Schema struct {
	Name   string
	Fields []string
}

// Len returns the vector length of the schema.
func (s Schema) Len() int {
	return len(s.Fields)
}

var (
	// SchemaV1 is the minimal layout: raw reserves and fee.
	SchemaV1 = Schema{
		Name:   "pool-v1",
		Fields: []string{"reserve0", "reserve1", "fee"},
	}

	// SchemaV2 extends SchemaV1 with log depth and reserve imbalance.
	SchemaV2 = Schema{
		Name:   "pool-v2",
		Fields: []string{"reserve0", "reserve1", "fee", "log_depth", "imbalance"},
	}
)

// Vector is an ordered feature vector.
type Vector []float64

// Extractor converts a pool into a vector of a fixed schema.
type Extractor interface {
	Schema() Schema
	Extract(pool model.Pool) Vector
}

// V1 extracts SchemaV1 vectors.
type V1 struct{}

func (V1) Schema() Schema { return SchemaV1 }

func (V1) Extract(pool model.Pool) Vector {
	return Vector{
		float64(pool.Reserve0),
		float64(pool.Reserve1),
		float64(pool.Fee),
	}
}

// V2 extracts SchemaV2 vectors.
type V2 struct{}

func (V2) Schema() Schema { return SchemaV2 }

func (V2) Extract(pool model.Pool) Vector {
	r0 := float64(pool.Reserve0)
	r1 := float64(pool.Reserve1)
	total := r0 + r1

	var imbalance float64
	if total > 0 {
		imbalance = math.Abs(r0-r1) / total
	}

	return Vector{r0, r1, float64(pool.Fee), math.Log1p(total), imbalance}
}

// ForSchema returns the extractor registered under a schema name.
func ForSchema(name string) (Extractor, error) {
	switch name {
	case "", SchemaV1.Name:
		return V1{}, nil
	case SchemaV2.Name:
		return V2{}, nil
	default:
		return nil, fmt.Errorf("unknown feature schema: %s", name)
	}
}
