package wiititle

// align16 rounds n up to the next multiple of 16 (AES block size).
func align16(n uint64) int {
	rem := n % 16
	if rem == 0 {
		return int(n)
	}
	return int(n + (16 - rem))
}

// align64 rounds n up to the next multiple of 64, the spacing between
// consecutive content entries inside a Content Region.
func align64(n int) int {
	rem := n % 64
	if rem == 0 {
		return n
	}
	return n + (64 - rem)
}

// ContentRegion holds the encrypted, block-padded bytes of every
// content entry in a title, keyed by TMD content index. It has no
// notion of decrypted size or hash on its own; those live in the
// paired TMD's content records.
type ContentRegion struct {
	contents map[uint16][]byte // index -> encrypted, 16-byte-aligned bytes
}

// NewContentRegion returns an empty Content Region.
func NewContentRegion() *ContentRegion {
	return &ContentRegion{contents: make(map[uint16][]byte)}
}

// ParseContentRegion reads a Content Region's encrypted bytes out of
// data, using tmd's content records (in index order) to know each
// entry's encrypted length and where the next one begins.
func ParseContentRegion(data []byte, tmd *TMD) (*ContentRegion, error) {
	cr := NewContentRegion()
	offset := 0
	for _, rec := range tmd.Records() {
		encSize := align16(rec.Size)
		if len(data) < offset+encSize {
			return nil, &MalformedInputError{Where: "content region", Offset: offset, Reason: "truncated content data"}
		}
		buf := make([]byte, encSize)
		copy(buf, data[offset:offset+encSize])
		cr.contents[rec.Index] = buf
		offset += align64(encSize)
	}
	return cr, nil
}

// Serialize lays out the Content Region's encrypted bytes in the order
// given by tmd's content records, padding each entry to a 64-byte
// boundary before the next.
func (cr *ContentRegion) Serialize(tmd *TMD) ([]byte, error) {
	var out []byte
	for _, rec := range tmd.Records() {
		enc, ok := cr.contents[rec.Index]
		if !ok {
			return nil, &UnknownContentError{IndexOrCID: uint32(rec.Index)}
		}
		out = append(out, enc...)
		padded := align64(len(enc))
		if padded > len(enc) {
			out = append(out, make([]byte, padded-len(enc))...)
		}
	}
	return out, nil
}

// GetEncContent returns the raw (still AES-CBC encrypted, block-padded)
// bytes for a content index.
func (cr *ContentRegion) GetEncContent(index uint16) ([]byte, error) {
	enc, ok := cr.contents[index]
	if !ok {
		return nil, &UnknownContentError{IndexOrCID: uint32(index)}
	}
	return append([]byte{}, enc...), nil
}

// GetDecContent decrypts the content at index with titleKey, truncates
// it to the decrypted size recorded in tmd, and verifies its SHA-1
// against the recorded hash.
func (cr *ContentRegion) GetDecContent(index uint16, tmd *TMD, titleKey []byte) ([]byte, error) {
	rec, err := tmd.GetContentRecordByIndex(index)
	if err != nil {
		return nil, err
	}
	enc, err := cr.GetEncContent(index)
	if err != nil {
		return nil, err
	}
	iv := contentIV(index)
	dec, err := aesCBCDecrypt(titleKey, iv[:], enc)
	if err != nil {
		return nil, err
	}
	if uint64(len(dec)) < rec.Size {
		return nil, &MalformedInputError{Where: "content region", Offset: 0, Reason: "decrypted content shorter than recorded size"}
	}
	dec = dec[:rec.Size]
	actual := sha1Sum(dec)
	if actual != rec.SHA1 {
		return nil, &HashMismatchError{Index: index, Expected: rec.SHA1, Actual: actual}
	}
	return dec, nil
}

// SetContent encrypts decData under titleKey, stores it at index, and
// updates tmd's content record for index with the new size and SHA-1.
// The record's index, content ID, and type are preserved; callers use
// AddContentRecord/SetContentRecord first for a brand new index.
func (cr *ContentRegion) SetContent(index uint16, decData []byte, tmd *TMD, titleKey []byte) error {
	rec, err := tmd.GetContentRecordByIndex(index)
	if err != nil {
		return err
	}
	iv := contentIV(index)
	padded := padZero(decData, 16)
	enc, err := aesCBCEncrypt(titleKey, iv[:], padded)
	if err != nil {
		return err
	}
	cr.contents[index] = enc
	rec.Size = uint64(len(decData))
	rec.SHA1 = sha1Sum(decData)
	tmd.SetContentRecord(*rec)
	return nil
}

// AddContent encrypts decData under titleKey and adds it as a brand
// new content with the given content ID and type, choosing the next
// unused index and registering a matching TMD content record.
func (cr *ContentRegion) AddContent(contentID uint32, contentType uint16, decData []byte, tmd *TMD, titleKey []byte) (uint16, error) {
	var nextIndex uint16
	for _, rec := range tmd.Records() {
		if rec.Index >= nextIndex {
			nextIndex = rec.Index + 1
		}
	}
	iv := contentIV(nextIndex)
	padded := padZero(decData, 16)
	enc, err := aesCBCEncrypt(titleKey, iv[:], padded)
	if err != nil {
		return 0, err
	}
	cr.contents[nextIndex] = enc
	tmd.AddContentRecord(ContentRecord{
		ContentID: contentID,
		Index:     nextIndex,
		Type:      contentType,
		Size:      uint64(len(decData)),
		SHA1:      sha1Sum(decData),
	})
	return nextIndex, nil
}

// RemoveContent deletes the encrypted bytes and TMD content record for
// index.
func (cr *ContentRegion) RemoveContent(index uint16, tmd *TMD) error {
	if _, ok := cr.contents[index]; !ok {
		return &UnknownContentError{IndexOrCID: uint32(index)}
	}
	delete(cr.contents, index)
	return tmd.RemoveContentRecord(index)
}
