package wiititle

import (
	"encoding/binary"
	"sort"
)

// tmdHeaderSize is the fixed size of a TMD's signed body before its
// content records: 484 bytes. The named fields in this package occupy
// the first 100 bytes; the remainder is reserved and preserved
// byte-for-byte across parse/serialize so an unmodified TMD round-trips
// exactly.
const tmdHeaderSize = 484

// contentRecordSize is the fixed size of one TMD content record.
const contentRecordSize = 36

// Content record types.
const (
	ContentTypeNormal uint16 = 0x0001
	ContentTypeDLC    uint16 = 0x4001
	ContentTypeShared uint16 = 0x8001
)

// Fixed byte offsets of named fields within the 484-byte TMD body.
const (
	offVersion          = 0
	offCACRLVersion     = 1
	offSignerCRLVersion = 2
	offVWii             = 3
	offIOSTitleID       = 4
	offTitleID          = 12
	offTitleType        = 20
	offGroupID          = 24
	offRegion           = 28
	offRatings          = 30
	offIPCMask          = 58
	offAccessRights     = 88
	offTitleVersion     = 92
	offNumContents      = 94
	offBootIndex        = 96
	offMinorVersion     = 98
)

// ContentRecord describes one content entry in a TMD: its content ID,
// index, type, decrypted size, and SHA-1 hash.
type ContentRecord struct {
	ContentID uint32
	Index     uint16
	Type      uint16
	Size      uint64
	SHA1      [20]byte
}

func parseContentRecord(b []byte) ContentRecord {
	var r ContentRecord
	r.ContentID = binary.BigEndian.Uint32(b[0:4])
	r.Index = binary.BigEndian.Uint16(b[4:6])
	r.Type = binary.BigEndian.Uint16(b[6:8])
	r.Size = binary.BigEndian.Uint64(b[8:16])
	copy(r.SHA1[:], b[16:36])
	return r
}

func (r ContentRecord) serialize() []byte {
	b := make([]byte, contentRecordSize)
	binary.BigEndian.PutUint32(b[0:4], r.ContentID)
	binary.BigEndian.PutUint16(b[4:6], r.Index)
	binary.BigEndian.PutUint16(b[6:8], r.Type)
	binary.BigEndian.PutUint64(b[8:16], r.Size)
	copy(b[16:36], r.SHA1[:])
	return b
}

// TMD is a parsed Title Metadata: a signed blob whose body carries
// title identity/version fields and an ordered list of content records.
type TMD struct {
	hdr     *signedBlobHeader
	body    [tmdHeaderSize]byte // raw header, named fields overlaid
	records []ContentRecord     // sorted ascending by Index
}

// ParseTMD parses a complete TMD (signature header + body + content
// records) from bytes.
func ParseTMD(data []byte) (*TMD, error) {
	hdr, bodyOff, err := parseSignedBlobHeader("tmd", data)
	if err != nil {
		return nil, err
	}
	if len(data) < bodyOff+tmdHeaderSize {
		return nil, &MalformedInputError{Where: "tmd", Offset: bodyOff, Reason: "truncated header"}
	}
	t := &TMD{hdr: hdr}
	copy(t.body[:], data[bodyOff:bodyOff+tmdHeaderSize])

	numContents := int(binary.BigEndian.Uint16(t.body[offNumContents : offNumContents+2]))
	recOff := bodyOff + tmdHeaderSize
	need := recOff + numContents*contentRecordSize
	if len(data) < need {
		return nil, &MalformedInputError{Where: "tmd", Offset: recOff, Reason: "truncated content records"}
	}
	t.records = make([]ContentRecord, numContents)
	for i := 0; i < numContents; i++ {
		off := recOff + i*contentRecordSize
		t.records[i] = parseContentRecord(data[off : off+contentRecordSize])
	}
	return t, nil
}

// Serialize reconstructs the complete TMD bytes: signature header, body
// (with num_contents recomputed from the record list), and content
// records sorted ascending by index.
//
// Callers must ensure record indices are unique and BootIndex() <
// NumContents() before calling Serialize; these invariants are checked
// and reported as errors rather than silently repaired.
func (t *TMD) Serialize() ([]byte, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	binary.BigEndian.PutUint16(t.body[offNumContents:offNumContents+2], uint16(len(t.records)))

	out := make([]byte, 0, t.hdr.bodyOffset()+tmdHeaderSize+len(t.records)*contentRecordSize)
	out = append(out, serializeSignedBlobHeader(t.hdr)...)
	out = append(out, t.body[:]...)
	sorted := append([]ContentRecord{}, t.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	for _, r := range sorted {
		out = append(out, r.serialize()...)
	}
	return out, nil
}

func (t *TMD) validate() error {
	seen := make(map[uint16]bool, len(t.records))
	for _, r := range t.records {
		if seen[r.Index] {
			return &MalformedInputError{Where: "tmd", Offset: 0, Reason: "duplicate content index"}
		}
		seen[r.Index] = true
	}
	if int(t.BootIndex()) >= len(t.records) && len(t.records) > 0 {
		return &MalformedInputError{Where: "tmd", Offset: offBootIndex, Reason: "boot_index >= num_contents"}
	}
	return nil
}

// SignedBody returns the exact bytes the TMD's signature covers (the
// fixed header plus content records, without the signature prefix).
func (t *TMD) SignedBody() []byte {
	sorted := append([]ContentRecord{}, t.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	binary.BigEndian.PutUint16(t.body[offNumContents:offNumContents+2], uint16(len(sorted)))
	out := append([]byte{}, t.body[:]...)
	for _, r := range sorted {
		out = append(out, r.serialize()...)
	}
	return out
}

// --- field accessors ---

func (t *TMD) Version() byte             { return t.body[offVersion] }
func (t *TMD) SetVersion(v byte)         { t.body[offVersion] = v }
func (t *TMD) IOSTitleID() uint64        { return binary.BigEndian.Uint64(t.body[offIOSTitleID:]) }
func (t *TMD) SetIOSTitleID(v uint64)    { binary.BigEndian.PutUint64(t.body[offIOSTitleID:], v) }
func (t *TMD) TitleID() uint64           { return binary.BigEndian.Uint64(t.body[offTitleID:]) }
func (t *TMD) SetTitleID(v uint64)       { binary.BigEndian.PutUint64(t.body[offTitleID:], v) }
func (t *TMD) TitleType() uint32         { return binary.BigEndian.Uint32(t.body[offTitleType:]) }
func (t *TMD) SetTitleType(v uint32)     { binary.BigEndian.PutUint32(t.body[offTitleType:], v) }
func (t *TMD) GroupID() uint16           { return binary.BigEndian.Uint16(t.body[offGroupID:]) }
func (t *TMD) SetGroupID(v uint16)       { binary.BigEndian.PutUint16(t.body[offGroupID:], v) }
func (t *TMD) Region() uint16            { return binary.BigEndian.Uint16(t.body[offRegion:]) }
func (t *TMD) SetRegion(v uint16)        { binary.BigEndian.PutUint16(t.body[offRegion:], v) }
func (t *TMD) AccessRights() uint32      { return binary.BigEndian.Uint32(t.body[offAccessRights:]) }
func (t *TMD) SetAccessRights(v uint32)  { binary.BigEndian.PutUint32(t.body[offAccessRights:], v) }
func (t *TMD) TitleVersion() uint16      { return binary.BigEndian.Uint16(t.body[offTitleVersion:]) }
func (t *TMD) SetTitleVersion(v uint16)  { binary.BigEndian.PutUint16(t.body[offTitleVersion:], v) }
func (t *TMD) NumContents() uint16       { return uint16(len(t.records)) }
func (t *TMD) BootIndex() uint16         { return binary.BigEndian.Uint16(t.body[offBootIndex:]) }
func (t *TMD) SetBootIndex(v uint16)     { binary.BigEndian.PutUint16(t.body[offBootIndex:], v) }
func (t *TMD) MinorVersion() uint16      { return binary.BigEndian.Uint16(t.body[offMinorVersion:]) }
func (t *TMD) SetMinorVersion(v uint16)  { binary.BigEndian.PutUint16(t.body[offMinorVersion:], v) }
func (t *TMD) Ratings() [16]byte {
	var r [16]byte
	copy(r[:], t.body[offRatings:offRatings+16])
	return r
}
func (t *TMD) IsVWii() bool { return t.body[offVWii] != 0 }

// Records returns the content records, sorted ascending by index.
func (t *TMD) Records() []ContentRecord {
	sorted := append([]ContentRecord{}, t.records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })
	return sorted
}

// GetContentRecordByIndex returns the record with the given index.
func (t *TMD) GetContentRecordByIndex(index uint16) (*ContentRecord, error) {
	for i := range t.records {
		if t.records[i].Index == index {
			r := t.records[i]
			return &r, nil
		}
	}
	return nil, &UnknownContentError{IndexOrCID: uint32(index)}
}

// GetContentRecordByCID returns the record with the given content ID.
func (t *TMD) GetContentRecordByCID(cid uint32) (*ContentRecord, error) {
	for i := range t.records {
		if t.records[i].ContentID == cid {
			r := t.records[i]
			return &r, nil
		}
	}
	return nil, &UnknownContentError{IndexOrCID: cid, ByCID: true}
}

// SetContentRecord replaces (by index) or appends a content record.
func (t *TMD) SetContentRecord(r ContentRecord) {
	for i := range t.records {
		if t.records[i].Index == r.Index {
			t.records[i] = r
			return
		}
	}
	t.records = append(t.records, r)
}

// AddContentRecord appends a new content record.
func (t *TMD) AddContentRecord(r ContentRecord) {
	t.records = append(t.records, r)
}

// RemoveContentRecord removes the record with the given index.
func (t *TMD) RemoveContentRecord(index uint16) error {
	for i := range t.records {
		if t.records[i].Index == index {
			t.records = append(t.records[:i], t.records[i+1:]...)
			return nil
		}
	}
	return &UnknownContentError{IndexOrCID: uint32(index)}
}

// Fakesign zeroes the TMD's signature, then brute-forces the scratch
// value stored in minor_version (a reserved "trucha bug" slot inside
// the signed body, not semantically load-bearing) until the SHA-1 of
// the signed body starts with a zero byte. IOS's buggy signature check
// treats that as a valid signature.
func (t *TMD) Fakesign() error {
	t.hdr.zeroSig()
	for scratch := 0; scratch < 65536; scratch++ {
		binary.BigEndian.PutUint16(t.body[offMinorVersion:offMinorVersion+2], uint16(scratch))
		sum := sha1Sum(t.SignedBody())
		if sum[0] == 0 {
			return nil
		}
	}
	return &FakesignFailedError{Component: "tmd"}
}
