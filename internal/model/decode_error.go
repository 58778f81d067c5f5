package model

import "fmt"

// DecodeError records a permanent decode failure for a transaction payload.
// It marks input that will never parse; callers convert it into a
// placeholder row instead of retrying.
type DecodeError struct {
	TxID   string `json:"tx_id"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tx %s: %s: %s", e.TxID, e.Stage, e.Reason)
}
