// Package emunand manages an EmuNAND-style directory tree: the layout
// SD-card Wii loaders use to install titles outside the console's real
// NAND. A title lives under /title/<high>/<low>/, its ticket under
// /ticket/<high>/<low>.tik, and deduplicated shared content under
// /shared1/, indexed by content.map.
package emunand

import (
	"bufio"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/halsey-tools/wiititle/pkg/uidsys"
	"github.com/halsey-tools/wiititle/pkg/wiititle"
)

// Store manages an EmuNAND tree rooted at Root.
type Store struct {
	Root string
}

func titleHalves(titleID uint64) (high, low string) {
	return fmt.Sprintf("%08x", titleID>>32), fmt.Sprintf("%08x", titleID&0xFFFFFFFF)
}

func (s *Store) titleDir(titleID uint64) string {
	high, low := titleHalves(titleID)
	return filepath.Join(s.Root, "title", high, low)
}

func (s *Store) ticketPath(titleID uint64) string {
	high, low := titleHalves(titleID)
	return filepath.Join(s.Root, "ticket", high, low+".tik")
}

// ContentMapPath returns the path to the shared content dedup index.
func (s *Store) ContentMapPath() string {
	return filepath.Join(s.Root, "shared1", "content.map")
}

// uidSysPath returns the path to the title-ID-to-UID mapping file.
func (s *Store) uidSysPath() string {
	return filepath.Join(s.Root, "sys", "uid.sys")
}

// readUIDTable loads uid.sys, returning an empty table if it does not
// yet exist.
func (s *Store) readUIDTable() (uidsys.Table, error) {
	raw, err := os.ReadFile(s.uidSysPath())
	if os.IsNotExist(err) {
		return make(uidsys.Table), nil
	}
	if err != nil {
		return nil, fmt.Errorf("emunand: read uid.sys: %w", err)
	}
	t, err := uidsys.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("emunand: parse uid.sys: %w", err)
	}
	return t, nil
}

// assignUID gives titleID a UID if it doesn't already have one,
// persisting the updated uid.sys, and returns the assigned UID.
func (s *Store) assignUID(titleID uint64) (uint32, error) {
	table, err := s.readUIDTable()
	if err != nil {
		return 0, err
	}
	uid, assigned := table.AssignUID(titleID)
	if !assigned {
		return uid, nil
	}
	if err := os.MkdirAll(filepath.Dir(s.uidSysPath()), 0o755); err != nil {
		return 0, fmt.Errorf("emunand: create sys dir: %w", err)
	}
	if err := os.WriteFile(s.uidSysPath(), table.Build(), 0o644); err != nil {
		return 0, fmt.Errorf("emunand: write uid.sys: %w", err)
	}
	return uid, nil
}

// InstallTitle writes a title's TMD, ticket, and content into the
// EmuNAND tree. Shared contents (ContentTypeShared) are decrypted and
// content-addressed into /shared1/, deduplicating against any existing
// entry with the same SHA-1. Other contents are decrypted,
// hash-verified, and written under the title's content directory,
// keyed by content ID.
func (s *Store) InstallTitle(t *wiititle.Title) error {
	titleDir := s.titleDir(t.TMD.TitleID())
	contentDir := filepath.Join(titleDir, "content")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return fmt.Errorf("emunand: create title content dir: %w", err)
	}

	if _, err := s.assignUID(t.TMD.TitleID()); err != nil {
		return err
	}

	tmdBytes, err := t.TMD.Serialize()
	if err != nil {
		return fmt.Errorf("emunand: serialize tmd: %w", err)
	}
	if err := os.WriteFile(filepath.Join(contentDir, "title.tmd"), tmdBytes, 0o644); err != nil {
		return fmt.Errorf("emunand: write tmd: %w", err)
	}

	ticketPath := s.ticketPath(t.TMD.TitleID())
	if err := os.MkdirAll(filepath.Dir(ticketPath), 0o755); err != nil {
		return fmt.Errorf("emunand: create ticket dir: %w", err)
	}
	if err := os.WriteFile(ticketPath, t.Ticket.Serialize(), 0o644); err != nil {
		return fmt.Errorf("emunand: write ticket: %w", err)
	}

	for _, rec := range t.TMD.Records() {
		if rec.Type == wiititle.ContentTypeShared {
			if err := s.installShared(t, rec); err != nil {
				return err
			}
			continue
		}
		dec, err := t.GetContentByIndex(rec.Index)
		if err != nil {
			return fmt.Errorf("emunand: decrypt content %d: %w", rec.Index, err)
		}
		name := fmt.Sprintf("%08x.app", rec.ContentID)
		if err := os.WriteFile(filepath.Join(contentDir, name), dec, 0o644); err != nil {
			return fmt.Errorf("emunand: write content %d: %w", rec.Index, err)
		}
	}
	return nil
}

// installShared decrypts a shared content and, if no existing
// content.map entry already carries its hash, writes it under
// /shared1/ and appends a new entry.
func (s *Store) installShared(t *wiititle.Title, rec wiititle.ContentRecord) error {
	dec, err := t.GetContentByIndex(rec.Index)
	if err != nil {
		return fmt.Errorf("emunand: decrypt shared content %d: %w", rec.Index, err)
	}
	hash := sha1.Sum(dec)

	entries, err := s.readContentMap()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Hash == hash {
			return nil // already deduplicated
		}
	}

	name := fmt.Sprintf("%08x", len(entries))
	sharedDir := filepath.Join(s.Root, "shared1")
	if err := os.MkdirAll(sharedDir, 0o755); err != nil {
		return fmt.Errorf("emunand: create shared1 dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(sharedDir, name+".app"), dec, 0o644); err != nil {
		return fmt.Errorf("emunand: write shared content: %w", err)
	}
	return s.appendContentMapEntry(name, hash)
}

type contentMapEntry struct {
	Name string
	Hash [20]byte
}

// readContentMap loads content.map's existing entries, returning an
// empty slice if the file does not yet exist.
func (s *Store) readContentMap() ([]contentMapEntry, error) {
	f, err := os.Open(s.ContentMapPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("emunand: open content.map: %w", err)
	}
	defer f.Close()

	var entries []contentMapEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		hashBytes, err := hex.DecodeString(fields[1])
		if err != nil || len(hashBytes) != 20 {
			continue
		}
		var e contentMapEntry
		e.Name = fields[0]
		copy(e.Hash[:], hashBytes)
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("emunand: read content.map: %w", err)
	}
	return entries, nil
}

func (s *Store) appendContentMapEntry(name string, hash [20]byte) error {
	f, err := os.OpenFile(s.ContentMapPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("emunand: open content.map for append: %w", err)
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "%s %s\n", name, hex.EncodeToString(hash[:]))
	if err != nil {
		return fmt.Errorf("emunand: append content.map entry: %w", err)
	}
	return nil
}

// RemoveTitle deletes a title's tree and ticket. Shared content under
// /shared1/ is left in place since other titles may reference it.
func (s *Store) RemoveTitle(titleID uint64) error {
	if err := os.RemoveAll(s.titleDir(titleID)); err != nil {
		return fmt.Errorf("emunand: remove title dir: %w", err)
	}
	ticketPath := s.ticketPath(titleID)
	if err := os.Remove(ticketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("emunand: remove ticket: %w", err)
	}
	return nil
}
