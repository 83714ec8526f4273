package wiititle

import (
	"bytes"
	"testing"
)

func TestContentRegionAddGetDecContent(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, nil, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	cr := NewContentRegion()
	titleKey := []byte("0123456789abcdef")

	decData := []byte("hello, this is a test content payload, not block aligned")
	index, err := cr.AddContent(0x00000000, ContentTypeNormal, decData, tmd, titleKey)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}

	got, err := cr.GetDecContent(index, tmd, titleKey)
	if err != nil {
		t.Fatalf("GetDecContent: %v", err)
	}
	if !bytes.Equal(got, decData) {
		t.Fatalf("decrypted content mismatch: got %q want %q", got, decData)
	}
}

func TestContentRegionHashMismatchDetected(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, nil, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	cr := NewContentRegion()
	titleKey := []byte("0123456789abcdef")
	index, err := cr.AddContent(1, ContentTypeNormal, []byte("original content bytes"), tmd, titleKey)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}

	enc, _ := cr.GetEncContent(index)
	enc[0] ^= 0xFF
	cr.contents[index] = enc

	_, err = cr.GetDecContent(index, tmd, titleKey)
	if _, ok := err.(*HashMismatchError); !ok {
		t.Fatalf("expected *HashMismatchError, got %T (%v)", err, err)
	}
}

func TestContentRegionSerializeParseRoundTrip(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, nil, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	cr := NewContentRegion()
	titleKey := []byte("0123456789abcdef")
	if _, err := cr.AddContent(0, ContentTypeNormal, []byte("content zero payload"), tmd, titleKey); err != nil {
		t.Fatalf("AddContent 0: %v", err)
	}
	if _, err := cr.AddContent(1, ContentTypeDLC, []byte("a different, longer content-one payload indeed"), tmd, titleKey); err != nil {
		t.Fatalf("AddContent 1: %v", err)
	}

	serialized, err := cr.Serialize(tmd)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	parsed, err := ParseContentRegion(serialized, tmd)
	if err != nil {
		t.Fatalf("ParseContentRegion: %v", err)
	}
	for _, rec := range tmd.Records() {
		dec, err := parsed.GetDecContent(rec.Index, tmd, titleKey)
		if err != nil {
			t.Fatalf("GetDecContent(%d) after round trip: %v", rec.Index, err)
		}
		want, _ := cr.GetDecContent(rec.Index, tmd, titleKey)
		if !bytes.Equal(dec, want) {
			t.Fatalf("content %d mismatch after round trip", rec.Index)
		}
	}
}

func TestContentRegionRemoveContent(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, nil, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	cr := NewContentRegion()
	titleKey := []byte("0123456789abcdef")
	index, err := cr.AddContent(0, ContentTypeNormal, []byte("payload"), tmd, titleKey)
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	if err := cr.RemoveContent(index, tmd); err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}
	if _, err := cr.GetEncContent(index); err == nil {
		t.Fatalf("expected error reading removed content")
	}
	if tmd.NumContents() != 0 {
		t.Fatalf("expected TMD record removed alongside content, got %d records", tmd.NumContents())
	}
}

func TestAlign16And64(t *testing.T) {
	cases := []struct {
		n    uint64
		want int
	}{{0, 0}, {1, 16}, {15, 16}, {16, 16}, {17, 32}}
	for _, c := range cases {
		if got := align16(c.n); got != c.want {
			t.Fatalf("align16(%d) = %d, want %d", c.n, got, c.want)
		}
	}
	if got := align64(65); got != 128 {
		t.Fatalf("align64(65) = %d, want 128", got)
	}
	if got := align64(64); got != 64 {
		t.Fatalf("align64(64) = %d, want 64", got)
	}
}
