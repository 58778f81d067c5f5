package tokenmeta

import "testing"

func TestBytes32ToString(t *testing.T) {
	var word [32]byte
	copy(word[:], "MKR")

	got, ok := bytes32ToString(word)
	if !ok || got != "MKR" {
		t.Fatalf("bytes32 decode mismatch: %q %v", got, ok)
	}

	got, ok = bytes32ToString([]byte("DAI\x00\x00"))
	if !ok || got != "DAI" {
		t.Fatalf("byte slice decode mismatch: %q %v", got, ok)
	}

	if _, ok := bytes32ToString(42); ok {
		t.Fatalf("unsupported type must not decode")
	}
}

func TestAsUint8(t *testing.T) {
	for _, value := range []interface{}{uint8(18), uint16(18), uint32(18), uint64(18)} {
		got, err := asUint8(value)
		if err != nil {
			t.Fatalf("convert %T: %v", value, err)
		}
		if got != 18 {
			t.Fatalf("decimals mismatch for %T: %d", value, got)
		}
	}

	if _, err := asUint8("18"); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
