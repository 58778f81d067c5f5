package model

// TokenTypeERC20 tags tokens discovered through transfer-shaped logs.
const TokenTypeERC20 = "ERC20"

// Token is a token contract discovered lazily from log activity.
// Metadata fields stay nil until enrichment fills them; once set they are
// never overwritten.
type Token struct {
	Address         string  `json:"address"`
	Type            string  `json:"type"`
	Name            *string `json:"name,omitempty"`
	Symbol          *string `json:"symbol,omitempty"`
	Decimals        *uint8  `json:"decimals,omitempty"`
	FirstSeenTx     string  `json:"first_seen_tx"`
	FirstSeenHeight int64   `json:"first_seen_height"`
}

// TokenMeta captures ERC20 metadata fetched from the chain.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
}
