package wiititle

import "encoding/binary"

// titleBlockSize is the unit GetTitleSizeBlocks reports in: the NAND
// block size used when sizing a title for installation.
const titleBlockSize = 0x20000

// Title is the facade over a WAD's parsed pieces: certificate chain,
// Ticket, TMD, and Content Region. Most callers should use Title rather
// than the individual pieces directly.
type Title struct {
	Chain   *Chain
	CRL     []byte
	Ticket  *Ticket
	TMD     *TMD
	Content *ContentRegion
	Meta    []byte
	wadType [2]byte
}

// FromWAD builds a Title facade over an already-parsed WAD.
func FromWAD(w *WAD) *Title {
	return &Title{
		Chain:   w.Chain,
		CRL:     w.CRL,
		Ticket:  w.Ticket,
		TMD:     w.TMD,
		Content: w.Content,
		Meta:    w.Meta,
		wadType: w.Type,
	}
}

// ToWAD assembles a WAD from the Title's current pieces.
func (t *Title) ToWAD() *WAD {
	return &WAD{
		Type:    t.wadType,
		Chain:   t.Chain,
		CRL:     t.CRL,
		Ticket:  t.Ticket,
		TMD:     t.TMD,
		Content: t.Content,
		Meta:    t.Meta,
	}
}

// titleKey decrypts and returns this title's cleartext Title Key.
func (t *Title) titleKey() ([]byte, error) {
	return t.Ticket.GetTitleKey()
}

// GetContentByIndex decrypts and hash-verifies the content at index.
func (t *Title) GetContentByIndex(index uint16) ([]byte, error) {
	key, err := t.titleKey()
	if err != nil {
		return nil, err
	}
	return t.Content.GetDecContent(index, t.TMD, key)
}

// SetContent re-encrypts decData as the content at index, updating its
// TMD record's size and hash.
func (t *Title) SetContent(index uint16, decData []byte) error {
	key, err := t.titleKey()
	if err != nil {
		return err
	}
	return t.Content.SetContent(index, decData, t.TMD, key)
}

// AddContent encrypts decData as a brand new content and registers a
// matching TMD content record, returning the index it was assigned.
func (t *Title) AddContent(contentID uint32, contentType uint16, decData []byte) (uint16, error) {
	key, err := t.titleKey()
	if err != nil {
		return 0, err
	}
	return t.Content.AddContent(contentID, contentType, decData, t.TMD, key)
}

// RemoveContent deletes the content at index from both the Content
// Region and the TMD.
func (t *Title) RemoveContent(index uint16) error {
	return t.Content.RemoveContent(index, t.TMD)
}

// SetTitleID changes the title's ID everywhere it appears, re-wrapping
// the Ticket's Title Key so its cleartext value is unchanged. Content
// IVs do not depend on title_id and are left untouched.
func (t *Title) SetTitleID(newTitleID uint64) error {
	if err := t.Ticket.SetTitleID(newTitleID); err != nil {
		return err
	}
	t.TMD.SetTitleID(newTitleID)
	return nil
}

// SetTitleVersion changes the title's version in both the TMD and the
// Ticket.
func (t *Title) SetTitleVersion(v uint16) {
	t.TMD.SetTitleVersion(v)
	binary.BigEndian.PutUint16(t.Ticket.body[tikOffTitleVersion:], v)
}

// Fakesign zeroes and bounded-brute-forces both the TMD's and the
// Ticket's signatures so IOS's buggy signature check accepts them.
func (t *Title) Fakesign() error {
	if err := t.TMD.Fakesign(); err != nil {
		return err
	}
	return t.Ticket.Fakesign()
}

// GetIsSigned reports whether this title is genuinely signed: its CA
// certificate's public key matches a known retail or development
// Root-CA modulus, the CP certificate's signature over the TMD
// verifies, and the XS certificate's signature over the Ticket
// verifies. A title re-signed under a fabricated root with otherwise
// consistent CP/XS signatures is not reported as signed.
func (t *Title) GetIsSigned() (bool, error) {
	ca, err := t.Chain.CACert()
	if err != nil {
		return false, err
	}
	cp, err := t.Chain.TMDCert()
	if err != nil {
		return false, err
	}
	xs, err := t.Chain.TicketCert()
	if err != nil {
		return false, err
	}
	if VerifyCAIsRoot(ca) == RootUnknown {
		return false, nil
	}
	tmdBytes, err := t.TMD.Serialize()
	if err != nil {
		return false, err
	}
	tmdOK, err := VerifyChild(cp, tmdBytes)
	if err != nil {
		return false, err
	}
	tktOK, err := VerifyChild(xs, t.Ticket.Serialize())
	if err != nil {
		return false, err
	}
	return tmdOK && tktOK, nil
}

// GetTitleSize returns the total installed size of the title in bytes:
// the sum of every content's encrypted, 16-byte-aligned size.
func (t *Title) GetTitleSize() uint64 {
	var total uint64
	for _, rec := range t.TMD.Records() {
		total += uint64(align16(rec.Size))
	}
	return total
}

// GetTitleSizeBlocks returns the title's installed size rounded up to
// whole NAND blocks.
func (t *Title) GetTitleSizeBlocks() uint32 {
	size := t.GetTitleSize()
	blocks := size / titleBlockSize
	if size%titleBlockSize != 0 {
		blocks++
	}
	return uint32(blocks)
}
