package model

// Token is a token entry of a market snapshot.
type Token struct {
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint32 `json:"decimals" yaml:"decimals"`
	Address  string `json:"address" yaml:"address"`
}
