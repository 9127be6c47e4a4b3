package model

// Snapshot is a point-in-time set of tokens and pools.
//
// A Snapshot is never modified after construction. The slices returned by
// Tokens and Pools share the snapshot's backing storage and must be treated
// as read-only, which makes a Snapshot safe for concurrent readers.
type Snapshot struct {
	tokens []Token
	pools  []Pool
}

// NewSnapshot builds a snapshot that takes ownership of tokens and pools.
func NewSnapshot(tokens []Token, pools []Pool) *Snapshot {
	return &Snapshot{tokens: tokens, pools: pools}
}

// Tokens returns the token set in producer order.
func (s *Snapshot) Tokens() []Token {
	return s.tokens
}

// Pools returns the pool set in producer order.
func (s *Snapshot) Pools() []Pool {
	return s.pools
}

// TokenCount returns the number of tokens.
func (s *Snapshot) TokenCount() int {
	return len(s.tokens)
}

// PoolCount returns the number of pools.
func (s *Snapshot) PoolCount() int {
	return len(s.pools)
}

// Pool returns a pointer to the pool at index i.
func (s *Snapshot) Pool(i int) *Pool {
	return &s.pools[i]
}
