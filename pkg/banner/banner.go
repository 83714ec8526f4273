// Package banner parses the IMET header that precedes a title's
// banner.bin/icon.bin/sound.bin bundle (opening.bnr on the channel
// banner, icon.bin inside a WAD's meta section). Only the header is
// parsed — icon/banner/sound animation data is opaque payload that
// callers slice out by the sizes this package reports; nothing here
// renders it.
package banner

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"unicode/utf16"
)

const (
	magicOffset    = 0x40
	versionOffset  = 0x44
	sizesOffset    = 0x48
	namesOffset    = 0x58
	nameSlotSize   = 84
	numNameSlots   = 10
	headerTotal    = 0x640
	md5Offset      = headerTotal - 16
)

// Magic is the fixed "IMET" signature.
var Magic = [4]byte{'I', 'M', 'E', 'T'}

// Languages, in the fixed slot order IMET stores display names.
var Languages = []string{
	"Japanese", "English", "German", "French", "Spanish",
	"Italian", "Dutch", "Unknown1", "Unknown2", "Korean",
}

// Header is a parsed IMET header.
type Header struct {
	Version    uint32
	IconSize   uint32
	BannerSize uint32
	SoundSize  uint32
	Names      map[string]string // language -> display name
	MD5        [16]byte
	MD5Valid   bool
}

// Parse reads an IMET header from a banner file's leading bytes.
func Parse(data []byte) (*Header, error) {
	if len(data) < headerTotal {
		return nil, fmt.Errorf("banner: input too short for IMET header (%d bytes)", len(data))
	}
	if [4]byte{data[magicOffset], data[magicOffset+1], data[magicOffset+2], data[magicOffset+3]} != Magic {
		return nil, fmt.Errorf("banner: bad IMET magic")
	}

	h := &Header{
		Version:    binary.BigEndian.Uint32(data[versionOffset : versionOffset+4]),
		IconSize:   binary.BigEndian.Uint32(data[sizesOffset : sizesOffset+4]),
		BannerSize: binary.BigEndian.Uint32(data[sizesOffset+4 : sizesOffset+8]),
		SoundSize:  binary.BigEndian.Uint32(data[sizesOffset+8 : sizesOffset+12]),
		Names:      make(map[string]string, numNameSlots),
	}

	for i, lang := range Languages {
		off := namesOffset + i*nameSlotSize
		h.Names[lang] = decodeUTF16BE(data[off : off+nameSlotSize])
	}

	copy(h.MD5[:], data[md5Offset:md5Offset+16])
	h.MD5Valid = h.MD5 == computeMD5(data)
	return h, nil
}

// computeMD5 hashes the header region [magicOffset, md5Offset) with the
// trailing MD5 slot itself excluded, matching how the digest is
// produced when a header is written.
func computeMD5(data []byte) [16]byte {
	return md5.Sum(data[magicOffset:md5Offset])
}

// Build serializes a Header plus externally-supplied icon/banner/sound
// payload sizes into a complete headerTotal-byte IMET header, with a
// freshly computed MD5.
func Build(h *Header) []byte {
	out := make([]byte, headerTotal)
	copy(out[magicOffset:magicOffset+4], Magic[:])
	binary.BigEndian.PutUint32(out[versionOffset:versionOffset+4], h.Version)
	binary.BigEndian.PutUint32(out[sizesOffset:sizesOffset+4], h.IconSize)
	binary.BigEndian.PutUint32(out[sizesOffset+4:sizesOffset+8], h.BannerSize)
	binary.BigEndian.PutUint32(out[sizesOffset+8:sizesOffset+12], h.SoundSize)

	for i, lang := range Languages {
		off := namesOffset + i*nameSlotSize
		encodeUTF16BE(out[off:off+nameSlotSize], h.Names[lang])
	}

	digest := computeMD5(out)
	copy(out[md5Offset:md5Offset+16], digest[:])
	return out
}

func decodeUTF16BE(b []byte) string {
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u := binary.BigEndian.Uint16(b[i : i+2])
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units))
}

func encodeUTF16BE(dst []byte, s string) {
	units := utf16.Encode([]rune(s))
	for i, u := range units {
		off := i * 2
		if off+2 > len(dst) {
			break
		}
		binary.BigEndian.PutUint16(dst[off:off+2], u)
	}
}
