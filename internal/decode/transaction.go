package decode

import (
	"encoding/base64"

	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"

	"evmscope/internal/model"
)

// DecodeTransaction recovers structured fields from a base64 bridge
// envelope carrying a signed EVM transaction. Any malformed input yields a
// *model.DecodeError; the caller turns that into a terminal placeholder row
// rather than retrying.
func DecodeTransaction(txID, rawB64 string, knownGasUsed *int64) (*model.Transaction, error) {
	raw, err := base64.StdEncoding.DecodeString(rawB64)
	if err != nil {
		return nil, &model.DecodeError{TxID: txID, Stage: "base64", Reason: err.Error()}
	}

	frames, err := parseFrames(raw)
	if err != nil {
		return nil, &model.DecodeError{TxID: txID, Stage: "envelope", Reason: err.Error()}
	}
	payload, ok := findFrame(frames, MsgTypeEVMTx)
	if !ok {
		return nil, &model.DecodeError{TxID: txID, Stage: "envelope", Reason: "no evm transaction frame"}
	}

	var ethTx ethtypes.Transaction
	if err := ethTx.UnmarshalBinary(payload); err != nil {
		return nil, &model.DecodeError{TxID: txID, Stage: "transaction", Reason: err.Error()}
	}

	signer := ethtypes.LatestSignerForChainID(ethTx.ChainId())
	from, err := ethtypes.Sender(signer, &ethTx)
	if err != nil {
		return nil, &model.DecodeError{TxID: txID, Stage: "sender", Reason: err.Error()}
	}

	tx := &model.Transaction{
		TxID:     txID,
		Hash:     ethTx.Hash().Hex(),
		From:     from.Hex(),
		Nonce:    ethTx.Nonce(),
		GasLimit: ethTx.Gas(),
		GasPrice: ethTx.GasPrice().String(),
		Value:    ethTx.Value().String(),
		Type:     ethTx.Type(),
		GasUsed:  knownGasUsed,
		Status:   model.StatusSuccess,
	}

	if to := ethTx.To(); to != nil {
		hex := to.Hex()
		tx.To = &hex
	}
	if chainID := ethTx.ChainId(); chainID != nil && chainID.Sign() > 0 {
		s := chainID.String()
		tx.ChainID = &s
	}
	if ethTx.Type() == ethtypes.DynamicFeeTxType {
		feeCap := ethTx.GasFeeCap().String()
		tipCap := ethTx.GasTipCap().String()
		tx.MaxFeePerGas = &feeCap
		tx.MaxPriorityFee = &tipCap
	}

	data := ethTx.Data()
	if len(data) > 0 {
		hex := hexutil.Encode(data)
		tx.Data = &hex
	}
	if selector, ok := Selector(data); ok {
		if sig, ok := KnownSignature(selector); ok {
			name := FunctionName(sig)
			tx.FunctionName = &name
			tx.FunctionSignature = &sig
		}
	}

	return tx, nil
}
