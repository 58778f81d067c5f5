package model

// Contract is a deployed contract derived from a successful
// contract-creation transaction.
type Contract struct {
	Address        string  `json:"address"`
	Creator        string  `json:"creator"`
	CreationTx     string  `json:"creation_tx"`
	CreationHeight int64   `json:"creation_height"`
	BytecodeHash   *string `json:"bytecode_hash,omitempty"`
}
