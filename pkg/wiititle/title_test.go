package wiititle

import "testing"

func TestTitleGetIsSignedTrueForGenuineSignatures(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)
	ok, err := title.GetIsSigned()
	if err != nil {
		t.Fatalf("GetIsSigned: %v", err)
	}
	if !ok {
		t.Fatalf("expected genuinely signed title to report signed")
	}
}

func TestTitleFakesignClearsSignature(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)

	if err := title.Fakesign(); err != nil {
		t.Fatalf("Fakesign: %v", err)
	}
	ok, err := title.GetIsSigned()
	if err != nil {
		t.Fatalf("GetIsSigned: %v", err)
	}
	if ok {
		t.Fatalf("fakesigned title should not pass real signature verification")
	}
}

func TestTitleSetTitleIDPreservesContentKey(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)

	before, err := title.GetContentByIndex(0)
	if err != nil {
		t.Fatalf("GetContentByIndex before: %v", err)
	}

	if err := title.SetTitleID(0x0001000199999999); err != nil {
		t.Fatalf("SetTitleID: %v", err)
	}
	if title.TMD.TitleID() != 0x0001000199999999 {
		t.Fatalf("TMD title ID not updated")
	}
	if title.Ticket.TitleID() != 0x0001000199999999 {
		t.Fatalf("Ticket title ID not updated")
	}

	after, err := title.GetContentByIndex(0)
	if err != nil {
		t.Fatalf("GetContentByIndex after: %v", err)
	}
	if string(before) != string(after) {
		t.Fatalf("content changed across SetTitleID: before=%q after=%q", before, after)
	}
}

func TestTitleSetTitleVersionUpdatesBothTMDAndTicket(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)
	title.SetTitleVersion(42)
	if title.TMD.TitleVersion() != 42 {
		t.Fatalf("TMD title version not updated")
	}
	if title.Ticket.TitleVersion() != 42 {
		t.Fatalf("Ticket title version not updated")
	}
}

func TestTitleAddSetRemoveContent(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)

	idx, err := title.AddContent(1, ContentTypeDLC, []byte("new dlc content payload"))
	if err != nil {
		t.Fatalf("AddContent: %v", err)
	}
	got, err := title.GetContentByIndex(idx)
	if err != nil {
		t.Fatalf("GetContentByIndex: %v", err)
	}
	if string(got) != "new dlc content payload" {
		t.Fatalf("content mismatch: %q", got)
	}

	if err := title.SetContent(idx, []byte("replacement payload")); err != nil {
		t.Fatalf("SetContent: %v", err)
	}
	got, err = title.GetContentByIndex(idx)
	if err != nil {
		t.Fatalf("GetContentByIndex after SetContent: %v", err)
	}
	if string(got) != "replacement payload" {
		t.Fatalf("content not replaced: %q", got)
	}

	if err := title.RemoveContent(idx); err != nil {
		t.Fatalf("RemoveContent: %v", err)
	}
	if _, err := title.GetContentByIndex(idx); err == nil {
		t.Fatalf("expected error reading removed content")
	}
}

func TestTitleGetTitleSizeAndBlocks(t *testing.T) {
	w := buildTestWAD(t)
	title := FromWAD(w)
	size := title.GetTitleSize()
	if size == 0 {
		t.Fatalf("expected non-zero title size")
	}
	if blocks := title.GetTitleSizeBlocks(); blocks == 0 {
		t.Fatalf("expected at least one block")
	}
}

