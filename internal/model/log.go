package model

// Log is one EVM execution log emitted by a transaction. Topic order is
// significant: index 0 is the event signature.
type Log struct {
	TxID     string   `json:"tx_id"`
	LogIndex uint32   `json:"log_index"`
	Address  string   `json:"address"`
	Topics   []string `json:"topics"`
	Data     string   `json:"data"`
}

// LogWithHeight pairs a log with the block height of its transaction.
type LogWithHeight struct {
	Log    Log
	Height int64
}
