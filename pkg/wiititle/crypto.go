package wiititle

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"strings"
)

// devCAIssuerPrefix is the signature issuer prefix that selects the
// development common key instead of the index-selected retail/Korean/vWii
// key.
const devCAIssuerPrefix = "Root-CA00000002"

// commonKeyTable is the fixed, process-wide, read-only mapping from
// common_key_index to 16-byte AES key. These are the well-known retail
// Wii common keys; index 0 is the original "common" key, 1 is Korean, 2
// is vWii. A separate development key is selected by issuer, not index.
var commonKeyTable = [3][16]byte{
	0: {0xeb, 0xe4, 0x2a, 0x22, 0x5e, 0x85, 0x93, 0xe4, 0x48, 0xd9, 0xc5, 0x45, 0x73, 0x81, 0xaa, 0xf7},
	1: {0x63, 0xb8, 0x2b, 0xb4, 0xf4, 0x61, 0x4e, 0x2e, 0x13, 0xf2, 0xfe, 0xfb, 0xba, 0x4c, 0x9b, 0x7e},
	2: {0x30, 0xbf, 0xc7, 0x6e, 0x7c, 0x19, 0xaf, 0xbb, 0x23, 0x16, 0x33, 0x30, 0xce, 0xd7, 0xc2, 0x8d},
}

// devCommonKey is the development-signed console common key.
var devCommonKey = [16]byte{
	0xa1, 0x60, 0x4a, 0x6a, 0x71, 0x23, 0xb5, 0x29, 0xae, 0x8b, 0xec, 0x32, 0xc8, 0x16, 0xfc, 0xaa,
}

// aesCBCEncrypt encrypts data under key/iv. data must be a multiple of
// 16 bytes; callers handle padding.
func aesCBCEncrypt(key, iv, data []byte) ([]byte, error) {
	if len(data)%16 != 0 {
		return nil, fmt.Errorf("wiititle: CBC encrypt: data not block aligned (%d bytes)", len(data))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// aesCBCDecrypt decrypts data under key/iv. data must be a multiple of
// 16 bytes.
func aesCBCDecrypt(key, iv, data []byte) ([]byte, error) {
	if len(data)%16 != 0 {
		return nil, &InvalidTitleKeyError{Reason: fmt.Sprintf("ciphertext not block aligned (%d bytes)", len(data))}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)
	return out, nil
}

// sha1Sum returns the SHA-1 digest of data.
func sha1Sum(data []byte) [20]byte {
	return sha1.Sum(data)
}

// commonKey returns the 16-byte AES common key for the given
// common_key_index, or the development key when isDev is true
// (selected by the ticket's signature issuer, not by index).
func commonKey(index byte, isDev bool) ([]byte, error) {
	if isDev {
		k := devCommonKey
		return k[:], nil
	}
	if int(index) >= len(commonKeyTable) {
		return nil, &InvalidCommonKeyIndexError{Index: index}
	}
	k := commonKeyTable[index]
	return k[:], nil
}

// isDevIssuer reports whether a 64-byte, NUL-terminated signature issuer
// field names the development CA.
func isDevIssuer(issuer [64]byte) bool {
	s := cstring(issuer[:])
	return strings.HasPrefix(s, devCAIssuerPrefix)
}

// titleIV builds the 16-byte IV used to decrypt a ticket's wrapped Title
// Key: the Title ID as big-endian u64, followed by 8 zero bytes.
func titleIV(titleID uint64) [16]byte {
	var iv [16]byte
	binary.BigEndian.PutUint64(iv[:8], titleID)
	return iv
}

// contentIV builds the 16-byte IV used to decrypt a single content: its
// index as big-endian u16, left-padded with zeros to 16 bytes.
func contentIV(index uint16) [16]byte {
	var iv [16]byte
	binary.BigEndian.PutUint16(iv[:2], index)
	return iv
}

// padZero pads data with zero bytes up to the next multiple of n.
func padZero(data []byte, n int) []byte {
	rem := len(data) % n
	if rem == 0 {
		return data
	}
	return append(append([]byte{}, data...), make([]byte, n-rem)...)
}

// cstring trims a fixed-size NUL-terminated ASCII field to its Go string.
func cstring(b []byte) string {
	i := 0
	for i < len(b) && b[i] != 0 {
		i++
	}
	return string(b[:i])
}

// putCString writes s into a fixed-size field, zero-padding a shorter
// string; a string as long as the field or longer is truncated to fill
// it and is not NUL-terminated.
func putCString(dst []byte, s string) {
	for i := range dst {
		dst[i] = 0
	}
	n := copy(dst, s)
	_ = n
}
