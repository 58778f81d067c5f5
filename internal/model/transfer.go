package model

// TokenTransfer is one token movement derived from a transfer-shaped log.
// Value carries the raw log data; unit interpretation is left downstream.
type TokenTransfer struct {
	TxID         string `json:"tx_id"`
	LogIndex     uint32 `json:"log_index"`
	TokenAddress string `json:"token_address"`
	FromAddress  string `json:"from_address"`
	ToAddress    string `json:"to_address"`
	Value        string `json:"value"`
}
