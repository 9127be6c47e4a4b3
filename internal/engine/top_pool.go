package engine

import (
	"context"
	"fmt"
	"math/big"

	"poolScope/internal/model"
)

// TopPoolReport names the pool with the largest reserve0+reserve1.
// Found is false for an empty pool set.
type TopPoolReport struct {
	Found      bool        `json:"found" yaml:"found"`
	Index      int         `json:"index" yaml:"index"`
	Pool       *model.Pool `json:"pool,omitempty" yaml:"pool,omitempty"`
	ReserveSum string      `json:"reserveSum,omitempty" yaml:"reserveSum,omitempty"`
}

func (r *TopPoolReport) Summary() string {
	if !r.Found {
		return "no pools"
	}
	return fmt.Sprintf("top pool is %s on %s (#%d) with reserve0+reserve1=%s",
		r.Pool.DexName, r.Pool.Chain, r.Index, r.ReserveSum)
}

// TopPool selects the pool with the largest reserve sum. Ties go to the
// earliest pool in snapshot order.
type TopPool struct{}

func NewTopPool() *TopPool {
	return &TopPool{}
}

func (*TopPool) Name() string {
	return "top-pool"
}

func (*TopPool) Execute(_ context.Context, snap *model.Snapshot) (Report, error) {
	pools := snap.Pools()
	if len(pools) == 0 {
		return &TopPoolReport{Index: -1}, nil
	}

	best := 0
	for i := 1; i < len(pools); i++ {
		if pools[i].CompareReserves(pools[best]) > 0 {
			best = i
		}
	}

	return &TopPoolReport{
		Found:      true,
		Index:      best,
		Pool:       snap.Pool(best),
		ReserveSum: formatReserveSum(pools[best]),
	}, nil
}

func formatReserveSum(pool model.Pool) string {
	hi, lo := pool.ReserveSum()
	sum := new(big.Int).SetUint64(hi)
	sum.Lsh(sum, 64)
	sum.Add(sum, new(big.Int).SetUint64(lo))
	return sum.String()
}
