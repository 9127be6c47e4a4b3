package model

import "math/bits"

// Pool is a liquidity pool entry of a market snapshot.
// Fee is kept in the producer's raw units.
type Pool struct {
	DexName  string `json:"dexName" yaml:"dexName"`
	Chain    string `json:"chain" yaml:"chain"`
	Token0   string `json:"token0" yaml:"token0"`
	Token1   string `json:"token1" yaml:"token1"`
	Reserve0 uint64 `json:"reserve0" yaml:"reserve0"`
	Reserve1 uint64 `json:"reserve1" yaml:"reserve1"`
	Fee      uint64 `json:"fee" yaml:"fee"`
}

// ReserveSum returns reserve0+reserve1 as a 128-bit value (hi, lo).
func (p Pool) ReserveSum() (hi, lo uint64) {
	lo, hi = bits.Add64(p.Reserve0, p.Reserve1, 0)
	return hi, lo
}

// ReserveTotal returns reserve0+reserve1 as a float64.
func (p Pool) ReserveTotal() float64 {
	return float64(p.Reserve0) + float64(p.Reserve1)
}

// CompareReserves compares the reserve sums of p and other.
// It returns -1, 0 or 1.
func (p Pool) CompareReserves(other Pool) int {
	hi, lo := p.ReserveSum()
	ohi, olo := other.ReserveSum()
	switch {
	case hi < ohi:
		return -1
	case hi > ohi:
		return 1
	case lo < olo:
		return -1
	case lo > olo:
		return 1
	default:
		return 0
	}
}
