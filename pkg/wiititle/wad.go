package wiititle

import "encoding/binary"

// wadHeaderSize is the fixed size of the WAD header.
const wadHeaderSize = 0x20

// WAD type markers, the first two bytes of a WAD header's wad_type
// field: "Is" for an installable title, "ib" for boot2.
var (
	wadTypeInstallable = [2]byte{'I', 's'}
	wadTypeBoot2       = [2]byte{'i', 'b'}
)

// WAD is a parsed WAD archive: a title's certificate chain, a
// certificate revocation list, Ticket, TMD, Content Region, and an
// opaque meta (banner/IMET) blob, each stored as a section padded to a
// 64-byte boundary.
type WAD struct {
	Type [2]byte

	Chain   *Chain
	CRL     []byte // opaque; no known retail WAD ships a non-empty CRL
	Ticket  *Ticket
	TMD     *TMD
	Content *ContentRegion
	Meta    []byte
}

// ParseWAD parses a complete WAD archive from bytes.
func ParseWAD(data []byte) (*WAD, error) {
	if len(data) < wadHeaderSize {
		return nil, &WadTruncatedError{Need: wadHeaderSize, Have: len(data)}
	}
	headerSize := binary.BigEndian.Uint32(data[0:4])
	if headerSize != wadHeaderSize {
		return nil, &MalformedInputError{Where: "wad", Offset: 0, Reason: "unexpected header_size"}
	}
	var wadType [2]byte
	copy(wadType[:], data[4:6])
	if wadType != wadTypeInstallable && wadType != wadTypeBoot2 {
		return nil, &WadBadMagicError{Got: [4]byte{data[4], data[5], data[6], data[7]}}
	}

	certSize := binary.BigEndian.Uint32(data[8:12])
	crlSize := binary.BigEndian.Uint32(data[12:16])
	tktSize := binary.BigEndian.Uint32(data[16:20])
	tmdSize := binary.BigEndian.Uint32(data[20:24])
	contentSize := binary.BigEndian.Uint32(data[24:28])
	metaSize := binary.BigEndian.Uint32(data[28:32])

	off := align64(wadHeaderSize)

	certRegion, off, err := takeSection(data, off, int(certSize), "certificate chain")
	if err != nil {
		return nil, err
	}
	// The CRL region is carried as opaque bytes: no retail title ships
	// a populated one, so there is nothing of this library's to parse.
	crlRegion, off, err := takeSection(data, off, int(crlSize), "crl")
	if err != nil {
		return nil, err
	}
	tktRegion, off, err := takeSection(data, off, int(tktSize), "ticket")
	if err != nil {
		return nil, err
	}
	tmdRegion, off, err := takeSection(data, off, int(tmdSize), "tmd")
	if err != nil {
		return nil, err
	}
	contentRegionBytes, off, err := takeSection(data, off, int(contentSize), "content region")
	if err != nil {
		return nil, err
	}
	metaRegion, _, err := takeSection(data, off, int(metaSize), "meta")
	if err != nil {
		return nil, err
	}

	chain, err := ParseChain(certRegion)
	if err != nil {
		return nil, err
	}
	tkt, err := ParseTicket(tktRegion)
	if err != nil {
		return nil, err
	}
	tmd, err := ParseTMD(tmdRegion)
	if err != nil {
		return nil, err
	}
	content, err := ParseContentRegion(contentRegionBytes, tmd)
	if err != nil {
		return nil, err
	}

	return &WAD{
		Type:    wadType,
		Chain:   chain,
		CRL:     append([]byte{}, crlRegion...),
		Ticket:  tkt,
		TMD:     tmd,
		Content: content,
		Meta:    append([]byte{}, metaRegion...),
	}, nil
}

// takeSection slices out a section of the given logical size starting
// at off, returning the slice and the (64-byte aligned) offset at
// which the following section begins.
func takeSection(data []byte, off, size int, where string) ([]byte, int, error) {
	if len(data) < off+size {
		return nil, 0, &WadTruncatedError{Need: off + size, Have: len(data)}
	}
	_ = where
	section := data[off : off+size]
	return section, off + align64(size), nil
}

// Serialize reconstructs the complete WAD bytes, recomputing every
// section size from its current contents and padding each section to a
// 64-byte boundary.
func (w *WAD) Serialize() ([]byte, error) {
	certBytes := serializeChain(w.Chain)
	tktBytes := w.Ticket.Serialize()
	tmdBytes, err := w.TMD.Serialize()
	if err != nil {
		return nil, err
	}
	contentBytes, err := w.Content.Serialize(w.TMD)
	if err != nil {
		return nil, err
	}

	header := make([]byte, wadHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], wadHeaderSize)
	copy(header[4:6], w.Type[:])
	binary.BigEndian.PutUint32(header[8:12], uint32(len(certBytes)))
	binary.BigEndian.PutUint32(header[12:16], uint32(len(w.CRL)))
	binary.BigEndian.PutUint32(header[16:20], uint32(len(tktBytes)))
	binary.BigEndian.PutUint32(header[20:24], uint32(len(tmdBytes)))
	binary.BigEndian.PutUint32(header[24:28], uint32(len(contentBytes)))
	binary.BigEndian.PutUint32(header[28:32], uint32(len(w.Meta)))

	out := make([]byte, 0, align64(wadHeaderSize)+align64(len(certBytes))+align64(len(w.CRL))+align64(len(tktBytes))+
		align64(len(tmdBytes))+align64(len(contentBytes))+align64(len(w.Meta)))
	out = appendSection(out, header, wadHeaderSize)
	out = appendSection(out, certBytes, len(certBytes))
	out = appendSection(out, w.CRL, len(w.CRL))
	out = appendSection(out, tktBytes, len(tktBytes))
	out = appendSection(out, tmdBytes, len(tmdBytes))
	out = appendSection(out, contentBytes, len(contentBytes))
	out = appendSection(out, w.Meta, len(w.Meta))
	return out, nil
}

func appendSection(out, section []byte, size int) []byte {
	out = append(out, section...)
	if padded := align64(size); padded > size {
		out = append(out, make([]byte, padded-size)...)
	}
	return out
}

// serializeChain concatenates a certificate chain's certificates in
// CA, CP, XS order, as stored in a WAD.
func serializeChain(ch *Chain) []byte {
	var out []byte
	for _, c := range []*Cert{ch.CA, ch.CP, ch.XS} {
		if c == nil {
			continue
		}
		out = append(out, serializeSignedBlobHeader(c.hdr)...)
		out = append(out, c.body...)
	}
	return out
}
