// Package uidsys reads and writes /sys/uid.sys, the NAND's
// flat title-ID-to-UID mapping file. IOS assigns every title a unique
// UID the first time it runs (for per-title NAND permission checks);
// uid.sys is the persistent record of those assignments.
package uidsys

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// entrySize is the size of one uid.sys record: an 8-byte title ID
// followed by a 4-byte UID, both big-endian.
const entrySize = 12

// firstAssignableUID is the lowest UID IOS hands out; UIDs below this
// are reserved for system titles and never appear in the file itself.
const firstAssignableUID = 0x1000

// Table is the parsed contents of uid.sys: title ID to assigned UID.
type Table map[uint64]uint32

// Parse reads a uid.sys image into a Table. data's length must be a
// multiple of entrySize.
func Parse(data []byte) (Table, error) {
	if len(data)%entrySize != 0 {
		return nil, fmt.Errorf("uidsys: length %d is not a multiple of %d", len(data), entrySize)
	}
	t := make(Table, len(data)/entrySize)
	for off := 0; off < len(data); off += entrySize {
		titleID := binary.BigEndian.Uint64(data[off:])
		uid := binary.BigEndian.Uint32(data[off+8:])
		t[titleID] = uid
	}
	return t, nil
}

// Build serializes the table back into a uid.sys image, with entries
// ordered by ascending UID (the order IOS itself writes them in, since
// UIDs are handed out sequentially).
func (t Table) Build() []byte {
	titleIDs := make([]uint64, 0, len(t))
	for id := range t {
		titleIDs = append(titleIDs, id)
	}
	sort.Slice(titleIDs, func(i, j int) bool { return t[titleIDs[i]] < t[titleIDs[j]] })

	out := make([]byte, 0, len(t)*entrySize)
	for _, id := range titleIDs {
		var rec [entrySize]byte
		binary.BigEndian.PutUint64(rec[0:8], id)
		binary.BigEndian.PutUint32(rec[8:12], t[id])
		out = append(out, rec[:]...)
	}
	return out
}

// UID returns the UID assigned to titleID and whether it has one.
func (t Table) UID(titleID uint64) (uint32, bool) {
	uid, ok := t[titleID]
	return uid, ok
}

// nextUID returns the UID one past the highest currently assigned,
// or firstAssignableUID if the table is empty.
func (t Table) nextUID() uint32 {
	next := uint32(firstAssignableUID)
	for _, uid := range t {
		if uid >= next {
			next = uid + 1
		}
	}
	return next
}

// AssignUID returns titleID's existing UID if it already has one, or
// assigns and records the next free UID. The returned bool reports
// whether a new assignment was made.
func (t Table) AssignUID(titleID uint64) (uid uint32, assigned bool) {
	if existing, ok := t[titleID]; ok {
		return existing, false
	}
	uid = t.nextUID()
	t[titleID] = uid
	return uid, true
}
