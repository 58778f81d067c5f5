package model

// Decode status values for a transaction row.
const (
	StatusSuccess      int16 = 1
	StatusFailure      int16 = 0
	StatusDecodeFailed int16 = -1
)

// Transaction is the decoded representation of an EVM transaction.
// Big integer amounts are stored as decimal strings. A nil To marks a
// contract creation.
type Transaction struct {
	TxID              string  `json:"tx_id"`
	Hash              string  `json:"hash"`
	From              string  `json:"from"`
	To                *string `json:"to,omitempty"`
	Nonce             uint64  `json:"nonce"`
	GasLimit          uint64  `json:"gas_limit"`
	GasPrice          string  `json:"gas_price"`
	MaxFeePerGas      *string `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFee    *string `json:"max_priority_fee_per_gas,omitempty"`
	Value             string  `json:"value"`
	Data              *string `json:"data,omitempty"`
	Type              uint8   `json:"type"`
	ChainID           *string `json:"chain_id,omitempty"`
	Height            int64   `json:"height"`
	GasUsed           *int64  `json:"gas_used,omitempty"`
	Status            int16   `json:"status"`
	FunctionName      *string `json:"function_name,omitempty"`
	FunctionSignature *string `json:"function_signature,omitempty"`
}

// IsCreation reports whether the transaction deploys a contract.
func (t *Transaction) IsCreation() bool {
	return t.To == nil
}
