package decode

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ExecLog is one log entry inside an execution-result frame.
type ExecLog struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// ExecResult is the decoded execution-response envelope for an EVM message.
type ExecResult struct {
	Logs    []ExecLog `json:"logs"`
	GasUsed int64     `json:"gas_used"`
	VMError string    `json:"vm_error,omitempty"`
}

// Failed reports whether execution ended with a VM error.
func (r *ExecResult) Failed() bool {
	return r != nil && r.VMError != ""
}

// DecodeExecutionResult extracts logs, gas used, and the VM error from a
// base64 bridge envelope. A missing or unrecognized result frame returns
// (nil, nil): most ledger messages are not EVM messages and carry none.
func DecodeExecutionResult(rawB64 string) (*ExecResult, error) {
	raw, err := base64.StdEncoding.DecodeString(rawB64)
	if err != nil {
		return nil, nil
	}
	frames, err := parseFrames(raw)
	if err != nil {
		return nil, nil
	}
	payload, ok := findFrame(frames, MsgTypeEVMResult)
	if !ok {
		return nil, nil
	}

	var result ExecResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("parse execution result: %w", err)
	}
	return &result, nil
}
