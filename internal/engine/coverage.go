package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"poolScope/internal/model"
)

// MissingToken is a pool token reference absent from the token set.
type MissingToken struct {
	PoolIndex int    `json:"poolIndex" yaml:"poolIndex"`
	DexName   string `json:"dexName" yaml:"dexName"`
	Side      string `json:"side" yaml:"side"`
	Address   string `json:"address" yaml:"address"`
}

// CoverageReport describes how well the token set covers the pool set.
type CoverageReport struct {
	Tokens             int            `json:"tokens" yaml:"tokens"`
	References         int            `json:"references" yaml:"references"`
	Missing            []MissingToken `json:"missing" yaml:"missing"`
	DuplicateSymbols   []string       `json:"duplicateSymbols" yaml:"duplicateSymbols"`
	DuplicateAddresses []string       `json:"duplicateAddresses" yaml:"duplicateAddresses"`
}

func (r *CoverageReport) Summary() string {
	return fmt.Sprintf("%d of %d pool token references resolved, %d duplicate symbols, %d duplicate addresses",
		r.References-len(r.Missing), r.References, len(r.DuplicateSymbols), len(r.DuplicateAddresses))
}

// TokenCoverage cross-checks pool token references against the token set.
// 0x-prefixed 20-byte addresses are compared case-insensitively; any other
// address is compared verbatim.
type TokenCoverage struct{}

func NewTokenCoverage() *TokenCoverage {
	return &TokenCoverage{}
}

func (*TokenCoverage) Name() string {
	return "token-coverage"
}

func (*TokenCoverage) Execute(_ context.Context, snap *model.Snapshot) (Report, error) {
	tokens := snap.Tokens()
	known := make(map[string]struct{}, len(tokens))
	symbols := make(map[string]int, len(tokens))
	addresses := make(map[string]int, len(tokens))

	for _, token := range tokens {
		key := addressKey(token.Address)
		known[key] = struct{}{}
		addresses[key]++
		symbols[token.Symbol]++
	}

	report := &CoverageReport{
		Tokens:             len(tokens),
		Missing:            make([]MissingToken, 0),
		DuplicateSymbols:   duplicates(symbols),
		DuplicateAddresses: duplicates(addresses),
	}

	for i, pool := range snap.Pools() {
		for _, ref := range []struct{ side, address string }{
			{"token0", pool.Token0},
			{"token1", pool.Token1},
		} {
			report.References++
			if _, ok := known[addressKey(ref.address)]; ok {
				continue
			}
			report.Missing = append(report.Missing, MissingToken{
				PoolIndex: i,
				DexName:   pool.DexName,
				Side:      ref.side,
				Address:   ref.address,
			})
		}
	}

	return report, nil
}

func addressKey(address string) string {
	if common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

func duplicates(counts map[string]int) []string {
	out := make([]string, 0)
	for key, n := range counts {
		if n > 1 {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
