package wiititle

import "encoding/binary"

// ticketBodySize is the fixed size of a Ticket's signed body, laid out
// per the field list in this library's specification.
const ticketBodySize = 358

// Fixed byte offsets of named fields within the Ticket body.
const (
	tikOffIssuer             = 0
	tikOffECDHData           = 64
	tikOffFormatVersion      = 124
	tikOffSigServerPubKey    = 125
	tikOffTitleKeyEnc        = 129
	tikOffTicketID           = 146
	tikOffConsoleID          = 154
	tikOffTitleID            = 158
	tikOffTitleVersion       = 168
	tikOffPermittedTitleMask = 170
	tikOffPermitMask         = 174
	tikOffTitleExportAllowed = 178
	tikOffCommonKeyIndex     = 179
	tikOffUnknown2           = 180
	tikOffContentAccessPerms = 228
	tikOffTimeLimits         = 294

	tikUnknown2Len        = 48
	tikFakesignScratchOff = tikOffUnknown2 + tikUnknown2Len - 2 // last two bytes of unknown2
)

// Ticket is a parsed Ticket: a signed blob whose body carries the
// wrapped Title Key and console/title policy bits.
type Ticket struct {
	hdr  *signedBlobHeader
	body [ticketBodySize]byte
}

// ParseTicket parses a complete Ticket (signature header + body) from
// bytes.
func ParseTicket(data []byte) (*Ticket, error) {
	hdr, bodyOff, err := parseSignedBlobHeader("ticket", data)
	if err != nil {
		return nil, err
	}
	if len(data) < bodyOff+ticketBodySize {
		return nil, &MalformedInputError{Where: "ticket", Offset: bodyOff, Reason: "truncated body"}
	}
	t := &Ticket{hdr: hdr}
	copy(t.body[:], data[bodyOff:bodyOff+ticketBodySize])
	return t, nil
}

// Serialize reconstructs the complete Ticket bytes.
func (t *Ticket) Serialize() []byte {
	out := make([]byte, 0, t.hdr.bodyOffset()+ticketBodySize)
	out = append(out, serializeSignedBlobHeader(t.hdr)...)
	out = append(out, t.body[:]...)
	return out
}

// SignedBody returns the exact bytes the Ticket's signature covers.
func (t *Ticket) SignedBody() []byte {
	return append([]byte{}, t.body[:]...)
}

// Issuer returns the signature issuer field, used to select the
// development common key and to verify chain identity.
func (t *Ticket) Issuer() string {
	return cstring(t.body[tikOffIssuer : tikOffIssuer+64])
}

func (t *Ticket) isDevIssuer() bool {
	var issuer [64]byte
	copy(issuer[:], t.body[tikOffIssuer:tikOffIssuer+64])
	return isDevIssuer(issuer)
}

func (t *Ticket) TitleID() uint64     { return binary.BigEndian.Uint64(t.body[tikOffTitleID:]) }
func (t *Ticket) TicketID() uint64    { return binary.BigEndian.Uint64(t.body[tikOffTicketID:]) }
func (t *Ticket) ConsoleID() uint32   { return binary.BigEndian.Uint32(t.body[tikOffConsoleID:]) }
func (t *Ticket) TitleVersion() uint16 {
	return binary.BigEndian.Uint16(t.body[tikOffTitleVersion:])
}
func (t *Ticket) CommonKeyIndex() byte { return t.body[tikOffCommonKeyIndex] }

// SetCommonKeyIndex changes the common key slot used to wrap the Title
// Key, re-wrapping the current cleartext Title Key under the new key so
// the cleartext key is preserved.
func (t *Ticket) SetCommonKeyIndex(index byte) error {
	key, err := t.GetTitleKey()
	if err != nil {
		return err
	}
	t.body[tikOffCommonKeyIndex] = index
	return t.SetTitleKey(key)
}

// GetTitleKey decrypts and returns the 16-byte cleartext Title Key.
func (t *Ticket) GetTitleKey() ([]byte, error) {
	key, err := t.wrapKey()
	if err != nil {
		return nil, err
	}
	iv := titleIV(t.TitleID())
	enc := t.body[tikOffTitleKeyEnc : tikOffTitleKeyEnc+16]
	return aesCBCDecrypt(key, iv[:], enc)
}

// SetTitleKey re-encrypts newKey as the ticket's wrapped Title Key,
// using the ticket's current title_id as IV and its currently selected
// common key.
func (t *Ticket) SetTitleKey(newKey []byte) error {
	if len(newKey) != 16 {
		return &InvalidTitleKeyError{Reason: "title key must be 16 bytes"}
	}
	key, err := t.wrapKey()
	if err != nil {
		return err
	}
	iv := titleIV(t.TitleID())
	enc, err := aesCBCEncrypt(key, iv[:], newKey)
	if err != nil {
		return err
	}
	copy(t.body[tikOffTitleKeyEnc:tikOffTitleKeyEnc+16], enc)
	return nil
}

// SetTitleID changes the ticket's title_id, re-wrapping the Title Key
// under the new IV so the cleartext key is unchanged.
func (t *Ticket) SetTitleID(newTitleID uint64) error {
	key, err := t.GetTitleKey()
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(t.body[tikOffTitleID:], newTitleID)
	return t.SetTitleKey(key)
}

func (t *Ticket) wrapKey() ([]byte, error) {
	idx := t.CommonKeyIndex()
	isDev := t.isDevIssuer()
	if !isDev && idx > 2 {
		return nil, &InvalidCommonKeyIndexError{Index: idx}
	}
	return commonKey(idx, isDev)
}

// Fakesign zeroes the Ticket's signature, then brute-forces the
// scratch value stored in the last two bytes of the unknown2 field
// (inside the signed body, not semantically load-bearing) until the
// SHA-1 of the signed body starts with a zero byte.
func (t *Ticket) Fakesign() error {
	t.hdr.zeroSig()
	for scratch := 0; scratch < 65536; scratch++ {
		binary.BigEndian.PutUint16(t.body[tikFakesignScratchOff:tikFakesignScratchOff+2], uint16(scratch))
		sum := sha1Sum(t.SignedBody())
		if sum[0] == 0 {
			return nil
		}
	}
	return &FakesignFailedError{Component: "ticket"}
}
