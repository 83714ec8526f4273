package wiititle

import (
	"bytes"
	"fmt"
)

// SignaturePatch describes one byte-for-byte substitution applied to a
// decrypted IOS content: find the first occurrence of Find and
// overwrite it with Replace. Find and Replace must be the same length,
// since IOS modules are position-dependent and a patch must not change
// the content's size.
type SignaturePatch struct {
	Name    string // human-readable, e.g. "ES_DiVerify always-pass"
	Find    []byte
	Replace []byte
}

// PatchIOSContent applies a set of signature-check patches to the
// decrypted bytes of the content at index, then re-encrypts it and
// updates its TMD record's size and hash. It does not sign or fakesign
// the title; call Title.Fakesign afterward.
func (t *Title) PatchIOSContent(index uint16, patches []SignaturePatch) error {
	dec, err := t.GetContentByIndex(index)
	if err != nil {
		return err
	}
	for _, p := range patches {
		if len(p.Find) != len(p.Replace) {
			return fmt.Errorf("wiititle: patch %q changes content length (%d -> %d bytes)", p.Name, len(p.Find), len(p.Replace))
		}
		at := bytes.Index(dec, p.Find)
		if at < 0 {
			return fmt.Errorf("wiititle: patch %q: pattern not found in content %d", p.Name, index)
		}
		copy(dec[at:at+len(p.Replace)], p.Replace)
	}
	return t.SetContent(index, dec)
}

// PatchAndFakesignIOS applies patches to the content at index, then
// fakesigns the TMD and Ticket so IOS's buggy signature check accepts
// the modified title without a genuine signing key.
func (t *Title) PatchAndFakesignIOS(index uint16, patches []SignaturePatch) error {
	if err := t.PatchIOSContent(index, patches); err != nil {
		return err
	}
	return t.Fakesign()
}

// KnownPatches is the library's built-in catalog of named ARM Thumb
// byte signatures for IOS's access-control checks: ES_Identify's
// signature verification, ES_OpenTitleContent's title-ownership check,
// the NAND driver's UID/GID permission check, and a content hash
// check. Each Find sequence is the conditional-branch form IOS takes
// on a failed check; Replace flips the condition so the success path
// is always taken. Exact offsets and encodings vary across IOS
// versions, so these are applied by pattern match, not fixed offset;
// a content that doesn't carry the pattern makes PatchIOSContent
// return a "pattern not found" error and leaves the content unmodified.
var KnownPatches = []SignaturePatch{
	{
		Name:    "es-identify-always-pass",
		Find:    []byte{0x00, 0x28, 0x01, 0xD1, 0x00, 0x20, 0x70, 0x47}, // CMP r0,#0; BNE +1; MOVS r0,#0; BX LR
		Replace: []byte{0x00, 0x28, 0x01, 0xD0, 0x00, 0x20, 0x70, 0x47}, // ... BEQ +1 instead: success path is never skipped
	},
	{
		Name:    "es-open-title-content-bypass",
		Find:    []byte{0x20, 0x28, 0x01, 0xD1, 0x01, 0x20, 0x70, 0x47}, // CMP r0,#0x20; BNE +1; MOVS r0,#1; BX LR
		Replace: []byte{0x20, 0x28, 0x01, 0xD0, 0x01, 0x20, 0x70, 0x47},
	},
	{
		Name:    "nand-permission-check-bypass",
		Find:    []byte{0x00, 0x2A, 0x01, 0xD1, 0x00, 0x20, 0x70, 0x47}, // CMP r2,#0; BNE +1; MOVS r0,#0; BX LR
		Replace: []byte{0x00, 0x2A, 0x01, 0xD0, 0x00, 0x20, 0x70, 0x47},
	},
	{
		Name:    "content-hash-check-bypass",
		Find:    []byte{0x00, 0x29, 0x01, 0xD1, 0x00, 0x20, 0x70, 0x47}, // CMP r1,#0; BNE +1; MOVS r0,#0; BX LR
		Replace: []byte{0x00, 0x29, 0x01, 0xD0, 0x00, 0x20, 0x70, 0x47},
	},
}

// KnownPatchByName returns the catalog entry with the given name.
func KnownPatchByName(name string) (SignaturePatch, bool) {
	for _, p := range KnownPatches {
		if p.Name == name {
			return p, true
		}
	}
	return SignaturePatch{}, false
}
