package decode

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"evmscope/internal/model"
)

func encodeFrames(t *testing.T, frames ...frame) []byte {
	t.Helper()
	var out []byte
	for _, f := range frames {
		header := make([]byte, frameHeaderSize)
		binary.BigEndian.PutUint32(header[0:4], f.msgType)
		binary.BigEndian.PutUint32(header[4:8], uint32(len(f.payload)))
		out = append(out, header...)
		out = append(out, f.payload...)
	}
	return out
}

func signedTx(t *testing.T, txdata ethtypes.TxData, chainID *big.Int) *ethtypes.Transaction {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer := ethtypes.LatestSignerForChainID(chainID)
	tx, err := ethtypes.SignNewTx(key, signer, txdata)
	if err != nil {
		t.Fatalf("sign tx: %v", err)
	}
	return tx
}

func envelopeB64(t *testing.T, tx *ethtypes.Transaction, extra ...frame) string {
	t.Helper()
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("marshal tx: %v", err)
	}
	frames := append([]frame{{msgType: MsgTypeEVMTx, payload: raw}}, extra...)
	return base64.StdEncoding.EncodeToString(encodeFrames(t, frames...))
}

func TestDecodeTransactionLegacy(t *testing.T) {
	to := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	calldata := hexutil.MustDecode("0xa9059cbb" +
		"000000000000000000000000cccccccccccccccccccccccccccccccccccccccc" +
		"0000000000000000000000000000000000000000000000000000000000000064")

	tx := signedTx(t, &ethtypes.LegacyTx{
		Nonce:    7,
		To:       &to,
		Value:    big.NewInt(1500),
		Gas:      90000,
		GasPrice: big.NewInt(2_000_000_000),
		Data:     calldata,
	}, big.NewInt(1337))

	decoded, err := DecodeTransaction("tx-1", envelopeB64(t, tx), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.TxID != "tx-1" {
		t.Fatalf("tx id mismatch: %s", decoded.TxID)
	}
	if decoded.Hash != tx.Hash().Hex() {
		t.Fatalf("hash mismatch: %s != %s", decoded.Hash, tx.Hash().Hex())
	}
	if decoded.To == nil || *decoded.To != to.Hex() {
		t.Fatalf("to mismatch: %v", decoded.To)
	}
	if decoded.Nonce != 7 || decoded.GasLimit != 90000 {
		t.Fatalf("nonce/gas mismatch: %d %d", decoded.Nonce, decoded.GasLimit)
	}
	if decoded.GasPrice != "2000000000" || decoded.Value != "1500" {
		t.Fatalf("amounts mismatch: %s %s", decoded.GasPrice, decoded.Value)
	}
	if decoded.ChainID == nil || *decoded.ChainID != "1337" {
		t.Fatalf("chain id mismatch: %v", decoded.ChainID)
	}
	if decoded.MaxFeePerGas != nil || decoded.MaxPriorityFee != nil {
		t.Fatalf("legacy tx must not carry 1559 fee caps")
	}
	if decoded.Status != model.StatusSuccess {
		t.Fatalf("status mismatch: %d", decoded.Status)
	}
	if decoded.FunctionSignature == nil || *decoded.FunctionSignature != "transfer(address,uint256)" {
		t.Fatalf("signature mismatch: %v", decoded.FunctionSignature)
	}
	if decoded.FunctionName == nil || *decoded.FunctionName != "transfer" {
		t.Fatalf("function name mismatch: %v", decoded.FunctionName)
	}

	// Sender must round-trip through signature recovery.
	signer := ethtypes.LatestSignerForChainID(tx.ChainId())
	from, err := ethtypes.Sender(signer, tx)
	if err != nil {
		t.Fatalf("recover sender: %v", err)
	}
	if decoded.From != from.Hex() {
		t.Fatalf("sender mismatch: %s != %s", decoded.From, from.Hex())
	}
}

func TestDecodeTransactionDynamicFee(t *testing.T) {
	to := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	tx := signedTx(t, &ethtypes.DynamicFeeTx{
		ChainID:   big.NewInt(1337),
		Nonce:     1,
		To:        &to,
		Value:     big.NewInt(0),
		Gas:       21000,
		GasFeeCap: big.NewInt(30_000_000_000),
		GasTipCap: big.NewInt(1_000_000_000),
	}, big.NewInt(1337))

	gasUsed := int64(21000)
	decoded, err := DecodeTransaction("tx-2", envelopeB64(t, tx), &gasUsed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Type != ethtypes.DynamicFeeTxType {
		t.Fatalf("type mismatch: %d", decoded.Type)
	}
	if decoded.MaxFeePerGas == nil || *decoded.MaxFeePerGas != "30000000000" {
		t.Fatalf("fee cap mismatch: %v", decoded.MaxFeePerGas)
	}
	if decoded.MaxPriorityFee == nil || *decoded.MaxPriorityFee != "1000000000" {
		t.Fatalf("tip cap mismatch: %v", decoded.MaxPriorityFee)
	}
	if decoded.GasUsed == nil || *decoded.GasUsed != 21000 {
		t.Fatalf("gas used mismatch: %v", decoded.GasUsed)
	}
	if decoded.Data != nil || decoded.FunctionSignature != nil {
		t.Fatalf("empty calldata must stay null")
	}
}

func TestDecodeTransactionCreation(t *testing.T) {
	tx := signedTx(t, &ethtypes.LegacyTx{
		Nonce:    0,
		Value:    big.NewInt(0),
		Gas:      500000,
		GasPrice: big.NewInt(1),
		Data:     hexutil.MustDecode("0x6080604052"),
	}, big.NewInt(1337))

	decoded, err := DecodeTransaction("tx-3", envelopeB64(t, tx), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !decoded.IsCreation() {
		t.Fatalf("nil recipient must mark a creation")
	}
	if decoded.Data == nil || *decoded.Data != "0x6080604052" {
		t.Fatalf("data mismatch: %v", decoded.Data)
	}
}

func TestDecodeTransactionFailureStages(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		stage string
	}{
		{"bad base64", "not-base64!!!", "base64"},
		{"truncated header", base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 1}), "envelope"},
		{
			"length overrun",
			base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 1, 0, 0, 0, 99, 0xde, 0xad}),
			"envelope",
		},
		{
			"no tx frame",
			base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 2, 0, 0, 0, 2, 0x7b, 0x7d}),
			"envelope",
		},
		{
			"garbage tx payload",
			base64.StdEncoding.EncodeToString([]byte{0, 0, 0, 1, 0, 0, 0, 3, 0x01, 0x02, 0x03}),
			"transaction",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeTransaction("tx-bad", tc.raw, nil)
			if err == nil {
				t.Fatalf("expected error")
			}
			var decodeErr *model.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected DecodeError, got %T", err)
			}
			if decodeErr.Stage != tc.stage {
				t.Fatalf("stage mismatch: %s != %s", decodeErr.Stage, tc.stage)
			}
			if decodeErr.TxID != "tx-bad" {
				t.Fatalf("tx id mismatch: %s", decodeErr.TxID)
			}
		})
	}
}

func TestDecodeExecutionResult(t *testing.T) {
	resultJSON := []byte(`{"logs":[{"address":"0xaaaa","topics":["0x01"],"data":"0x02"}],"gas_used":54321,"vm_error":"execution reverted"}`)
	raw := encodeFrames(t,
		frame{msgType: MsgTypeEVMTx, payload: []byte{0x01}},
		frame{msgType: MsgTypeEVMResult, payload: resultJSON},
	)

	result, err := DecodeExecutionResult(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result == nil {
		t.Fatalf("expected result")
	}
	if result.GasUsed != 54321 {
		t.Fatalf("gas used mismatch: %d", result.GasUsed)
	}
	if !result.Failed() {
		t.Fatalf("vm error must mark failure")
	}
	if len(result.Logs) != 1 || result.Logs[0].Address != "0xaaaa" {
		t.Fatalf("logs mismatch: %+v", result.Logs)
	}
}

func TestDecodeExecutionResultAbsent(t *testing.T) {
	// Non-envelope and envelope-without-result inputs are not errors.
	if result, err := DecodeExecutionResult("!!not base64"); result != nil || err != nil {
		t.Fatalf("bad base64 must yield nil, nil")
	}

	raw := encodeFrames(t, frame{msgType: MsgTypeEVMTx, payload: []byte{0x01}})
	if result, err := DecodeExecutionResult(base64.StdEncoding.EncodeToString(raw)); result != nil || err != nil {
		t.Fatalf("missing result frame must yield nil, nil")
	}
}

func TestDecodeExecutionResultBadJSON(t *testing.T) {
	raw := encodeFrames(t, frame{msgType: MsgTypeEVMResult, payload: []byte("{broken")})
	if _, err := DecodeExecutionResult(base64.StdEncoding.EncodeToString(raw)); err == nil {
		t.Fatalf("expected error for malformed result payload")
	}
}

func TestContractAddressDeterministic(t *testing.T) {
	creator := common.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")

	first := ContractAddress(creator, 0)
	second := ContractAddress(creator, 0)
	if first != second {
		t.Fatalf("derivation must be deterministic: %s != %s", first.Hex(), second.Hex())
	}
	if first != crypto.CreateAddress(creator, 0) {
		t.Fatalf("derivation must match the standard formula")
	}
	if ContractAddress(creator, 1) == first {
		t.Fatalf("different nonces must derive different addresses")
	}
}

func TestSelector(t *testing.T) {
	if _, ok := Selector([]byte{0x01, 0x02, 0x03}); ok {
		t.Fatalf("short calldata must have no selector")
	}

	selector, ok := Selector(hexutil.MustDecode("0xa9059cbb0000"))
	if !ok || selector != "0xa9059cbb" {
		t.Fatalf("selector mismatch: %s", selector)
	}

	sig, ok := KnownSignature("0xA9059CBB")
	if !ok || sig != "transfer(address,uint256)" {
		t.Fatalf("lookup must be case-insensitive: %s", sig)
	}
	if _, ok := KnownSignature("0xdeadbeef"); ok {
		t.Fatalf("unknown selector must miss")
	}

	if name := FunctionName("transferFrom(address,address,uint256)"); name != "transferFrom" {
		t.Fatalf("function name mismatch: %s", name)
	}
}
