package lz77

import (
	"bytes"
	"testing"
)

func header(decSize int) []byte {
	return []byte{
		compressionType,
		byte(decSize),
		byte(decSize >> 8),
		byte(decSize >> 16),
	}
}

func TestDecodeAllLiterals(t *testing.T) {
	payload := []byte("ABCDEFGH")
	raw := append(header(len(payload)), 0x00) // flag byte: all 8 bits literal
	raw = append(raw, payload...)

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}

func TestDecodeBackReference(t *testing.T) {
	// "AB" as two literals, then a back-reference of length 5 at
	// offset 2 repeating "AB" two and a half times: "ABABA".
	// flag byte: bit7=0 (lit 'A'), bit6=0 (lit 'B'), bit5=1 (reference), rest unused.
	flag := byte(0b00100000)
	b0 := byte((5-3)<<4 | 0) // length=5 -> top nibble = 2; offset high nibble = 0
	b1 := byte(2 - 1)        // offset = 2
	raw := append(header(7), flag, 'A', 'B', b0, b1)

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte("ABABABA")
	if !bytes.Equal(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDecodeRejectsBadType(t *testing.T) {
	raw := header(4)
	raw[0] = 0x11
	raw = append(raw, 0x00, 'A', 'B', 'C', 'D')
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected error for bad compression type")
	}
}

func TestDecodeRejectsTruncatedHeader(t *testing.T) {
	if _, err := Decode([]byte{0x10, 0x01}); err == nil {
		t.Fatalf("expected error for truncated header")
	}
}

func TestDecodeRejectsOffsetBeyondOutput(t *testing.T) {
	flag := byte(0b10000000) // first token is a back-reference with nothing yet decoded
	raw := append(header(3), flag, 0x00, 0x00)
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected error for out-of-range back-reference offset")
	}
}

func TestDecodeExtendedSizeHeader(t *testing.T) {
	payload := []byte("XYZ")
	raw := []byte{compressionType, 0x00, 0x00, 0x00}
	raw = append(raw, byte(len(payload)), 0x00, 0x00, 0x00)
	raw = append(raw, 0x00)
	raw = append(raw, payload...)

	got, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %q, want %q", got, payload)
	}
}
