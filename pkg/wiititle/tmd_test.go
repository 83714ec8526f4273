package wiititle

import (
	"bytes"
	"testing"
)

func TestParseTMDRoundTrip(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	records := []ContentRecord{
		{ContentID: 0, Index: 0, Type: ContentTypeNormal, Size: 32, SHA1: [20]byte{1, 2, 3}},
		{ContentID: 1, Index: 1, Type: ContentTypeDLC, Size: 64, SHA1: [20]byte{4, 5, 6}},
	}
	raw := buildTMDBytes(t, 0x0001000100000002, 0, records, cpPriv)

	tmd, err := ParseTMD(raw)
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	if tmd.TitleID() != 0x0001000100000002 {
		t.Fatalf("TitleID mismatch: got %x", tmd.TitleID())
	}
	if tmd.NumContents() != 2 {
		t.Fatalf("NumContents mismatch: got %d", tmd.NumContents())
	}
	got := tmd.Records()
	if len(got) != 2 || got[0].Index != 0 || got[1].Index != 1 {
		t.Fatalf("unexpected records: %+v", got)
	}

	out, err := tmd.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Fatalf("serialize did not round-trip:\ngot  %x\nwant %x", out, raw)
	}
}

func TestTMDRecordsSortByIndexRegardlessOfInsertionOrder(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	records := []ContentRecord{
		{ContentID: 2, Index: 2, Type: ContentTypeNormal, Size: 16},
		{ContentID: 0, Index: 0, Type: ContentTypeNormal, Size: 16},
		{ContentID: 1, Index: 1, Type: ContentTypeNormal, Size: 16},
	}
	raw := buildTMDBytes(t, 1, 0, records, cpPriv)
	tmd, err := ParseTMD(raw)
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	got := tmd.Records()
	for i, r := range got {
		if int(r.Index) != i {
			t.Fatalf("records not sorted ascending by index: %+v", got)
		}
	}
}

func TestTMDSerializeRejectsDuplicateIndex(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, []ContentRecord{{Index: 0}}, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	tmd.AddContentRecord(ContentRecord{Index: 0, ContentID: 99})
	if _, err := tmd.Serialize(); err == nil {
		t.Fatalf("expected error for duplicate content index")
	}
}

func TestTMDSerializeRejectsBootIndexOutOfRange(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 5, []ContentRecord{{Index: 0}}, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	if _, err := tmd.Serialize(); err == nil {
		t.Fatalf("expected error for boot_index >= num_contents")
	}
}

func TestTMDGetContentRecordNotFound(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, []ContentRecord{{Index: 0, ContentID: 7}}, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	if _, err := tmd.GetContentRecordByIndex(5); err == nil {
		t.Fatalf("expected UnknownContentError for missing index")
	}
	if _, err := tmd.GetContentRecordByCID(123); err == nil {
		t.Fatalf("expected UnknownContentError for missing content id")
	}
	rec, err := tmd.GetContentRecordByCID(7)
	if err != nil || rec.Index != 0 {
		t.Fatalf("GetContentRecordByCID: rec=%+v err=%v", rec, err)
	}
}

func TestTMDRemoveContentRecord(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, []ContentRecord{{Index: 0}, {Index: 1}}, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	if err := tmd.RemoveContentRecord(0); err != nil {
		t.Fatalf("RemoveContentRecord: %v", err)
	}
	if tmd.NumContents() != 1 {
		t.Fatalf("expected 1 remaining record, got %d", tmd.NumContents())
	}
	if err := tmd.RemoveContentRecord(0); err == nil {
		t.Fatalf("expected error removing an already-removed index")
	}
}

func TestTMDFakesignProducesZeroPrefixedHash(t *testing.T) {
	_, cpPriv, _ := testChain(t)
	tmd, err := ParseTMD(buildTMDBytes(t, 1, 0, []ContentRecord{{Index: 0}}, cpPriv))
	if err != nil {
		t.Fatalf("ParseTMD: %v", err)
	}
	if err := tmd.Fakesign(); err != nil {
		t.Fatalf("Fakesign: %v", err)
	}
	for _, b := range tmd.hdr.sig {
		if b != 0 {
			t.Fatalf("fakesign left signature non-zero")
		}
	}
	sum := sha1Sum(tmd.SignedBody())
	if sum[0] != 0 {
		t.Fatalf("fakesigned body hash does not start with zero byte: %x", sum)
	}
}
