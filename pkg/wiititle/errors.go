package wiititle

import "fmt"

// MalformedInputError reports a parse failure at a specific byte offset.
type MalformedInputError struct {
	Where  string // component/field being parsed
	Offset int    // byte offset within the input
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input in %s at offset 0x%x: %s", e.Where, e.Offset, e.Reason)
}

// UnsupportedSignatureTypeError reports a signature type tag this library
// does not recognize (not RSA-2048, RSA-4096, or ECDSA).
type UnsupportedSignatureTypeError struct {
	Tag uint32
}

func (e *UnsupportedSignatureTypeError) Error() string {
	return fmt.Sprintf("unsupported signature type tag 0x%08x", e.Tag)
}

// HashMismatchError reports a decrypted content whose SHA-1 does not match
// the hash recorded in its TMD content record.
type HashMismatchError struct {
	Index    uint16
	Expected [20]byte
	Actual   [20]byte
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("content index %d: hash mismatch (expected %x, got %x)", e.Index, e.Expected, e.Actual)
}

// InvalidTitleKeyError reports a structural failure decrypting a Title Key
// (ciphertext length not a multiple of 16). A semantically wrong key
// cannot be detected this way — only by hashing decrypted content.
type InvalidTitleKeyError struct {
	Reason string
}

func (e *InvalidTitleKeyError) Error() string {
	return fmt.Sprintf("invalid title key: %s", e.Reason)
}

// InvalidCommonKeyIndexError reports a common_key_index outside {0,1,2}
// on a ticket whose issuer is not the development CA.
type InvalidCommonKeyIndexError struct {
	Index byte
}

func (e *InvalidCommonKeyIndexError) Error() string {
	return fmt.Sprintf("invalid common key index %d", e.Index)
}

// FakesignFailedError reports that the bounded fakesign search exhausted
// all 65536 candidates without finding a SHA-1 with a leading zero byte.
type FakesignFailedError struct {
	Component string
}

func (e *FakesignFailedError) Error() string {
	return fmt.Sprintf("fakesign failed for %s: exhausted 65536 candidates", e.Component)
}

// UnknownContentError reports a content lookup by index or content ID
// that does not exist in the TMD/ContentRegion.
type UnknownContentError struct {
	IndexOrCID uint32
	ByCID      bool
}

func (e *UnknownContentError) Error() string {
	if e.ByCID {
		return fmt.Sprintf("unknown content id 0x%08x", e.IndexOrCID)
	}
	return fmt.Sprintf("unknown content index %d", e.IndexOrCID)
}

// WadBadMagicError reports a WAD whose wad_type field is neither the
// installable nor boot2 magic.
type WadBadMagicError struct {
	Got [4]byte
}

func (e *WadBadMagicError) Error() string {
	return fmt.Sprintf("bad WAD magic: %x", e.Got)
}

// WadTruncatedError reports a WAD header claiming region sizes that run
// past the end of the supplied bytes.
type WadTruncatedError struct {
	Need, Have int
}

func (e *WadTruncatedError) Error() string {
	return fmt.Sprintf("WAD truncated: header claims %d bytes, have %d", e.Need, e.Have)
}

// DownloadFailedError reports a non-2xx NUS response.
type DownloadFailedError struct {
	Status int
	URL    string
}

func (e *DownloadFailedError) Error() string {
	return fmt.Sprintf("download failed: %s returned status %d", e.URL, e.Status)
}

// IsHashMismatch reports whether err is a *HashMismatchError.
func IsHashMismatch(err error) bool {
	_, ok := err.(*HashMismatchError)
	return ok
}

// IsMalformedInput reports whether err is a *MalformedInputError.
func IsMalformedInput(err error) bool {
	_, ok := err.(*MalformedInputError)
	return ok
}

// IsWadTruncated reports whether err is a *WadTruncatedError.
func IsWadTruncated(err error) bool {
	_, ok := err.(*WadTruncatedError)
	return ok
}
