package model

// PendingTx is a queued decode request produced by the upstream ledger
// indexer. RawBytes holds the base64 bridge envelope for the transaction.
type PendingTx struct {
	TxID      string  `json:"tx_id"`
	RawBytes  string  `json:"raw_bytes"`
	Height    int64   `json:"height"`
	GasUsed   *int64  `json:"gas_used,omitempty"`
	KnownHash *string `json:"known_hash,omitempty"`
}
