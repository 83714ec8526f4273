package banner

import "testing"

func TestBuildParseRoundTrip(t *testing.T) {
	h := &Header{
		Version:    3,
		IconSize:   0x1200,
		BannerSize: 0x17A00,
		SoundSize:  0x4600,
		Names: map[string]string{
			"Japanese": "テスト",
			"English":  "Test Channel",
			"German":   "Testkanal",
		},
	}
	raw := Build(h)

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !got.MD5Valid {
		t.Fatalf("expected MD5Valid after Build+Parse round trip")
	}
	if got.IconSize != h.IconSize || got.BannerSize != h.BannerSize || got.SoundSize != h.SoundSize {
		t.Fatalf("size mismatch: got %+v, want icon=%d banner=%d sound=%d", got, h.IconSize, h.BannerSize, h.SoundSize)
	}
	if got.Names["English"] != "Test Channel" {
		t.Fatalf("English name = %q, want %q", got.Names["English"], "Test Channel")
	}
	if got.Names["Japanese"] != "テスト" {
		t.Fatalf("Japanese name = %q, want %q", got.Names["Japanese"], "テスト")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	raw := Build(&Header{})
	raw[magicOffset] = 'X'
	if _, err := Parse(raw); err == nil {
		t.Fatalf("expected error for bad magic")
	}
}

func TestParseRejectsTruncatedInput(t *testing.T) {
	if _, err := Parse(make([]byte, 0x10)); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func TestParseDetectsCorruptedMD5(t *testing.T) {
	raw := Build(&Header{IconSize: 1})
	raw[magicOffset+5] ^= 0xFF // corrupt a byte inside the hashed region without touching the digest

	got, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.MD5Valid {
		t.Fatalf("expected MD5Valid = false after corrupting header body")
	}
}
