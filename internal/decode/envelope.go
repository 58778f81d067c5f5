package decode

import (
	"encoding/binary"
	"fmt"
)

// Bridge envelope message types. The ledger wraps every EVM payload in one
// or more frames of the form: uint32 msgType | uint32 length | payload,
// all big-endian.
const (
	MsgTypeEVMTx     uint32 = 1
	MsgTypeEVMResult uint32 = 2
)

const frameHeaderSize = 8

type frame struct {
	msgType uint32
	payload []byte
}

func parseFrames(data []byte) ([]frame, error) {
	var frames []frame
	for len(data) > 0 {
		if len(data) < frameHeaderSize {
			return nil, fmt.Errorf("truncated frame header: %d bytes", len(data))
		}
		msgType := binary.BigEndian.Uint32(data[0:4])
		length := binary.BigEndian.Uint32(data[4:8])
		if uint64(len(data)-frameHeaderSize) < uint64(length) {
			return nil, fmt.Errorf("payload length mismatch: expected %d, got %d", length, len(data)-frameHeaderSize)
		}
		payload := make([]byte, length)
		copy(payload, data[frameHeaderSize:frameHeaderSize+length])
		frames = append(frames, frame{msgType: msgType, payload: payload})
		data = data[frameHeaderSize+length:]
	}
	return frames, nil
}

func findFrame(frames []frame, msgType uint32) ([]byte, bool) {
	for _, f := range frames {
		if f.msgType == msgType {
			return f.payload, true
		}
	}
	return nil, false
}
