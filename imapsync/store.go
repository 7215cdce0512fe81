package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"imapsync/imap"
)

// Inventory is the pair of disjoint UID sets a Store scan derives from
// an output directory, per §3's LocalInventory.
type Inventory struct {
	HeadersOnly map[uint32]bool
	Full        map[uint32]bool
}

func newInventory() Inventory {
	return Inventory{HeadersOnly: map[uint32]bool{}, Full: map[uint32]bool{}}
}

// Store owns the on-disk layout for one (canonical_host, mailbox)
// pair: the per-UID message artifacts and the UIDVALIDITY marker. An
// optional SQLite mirror is rewritten from the directory scan on every
// Inventory call; it is never read back, and the on-disk files remain
// the source of truth.
type Store struct {
	OutDir string
	Host   string
	Mbox   string

	db *sql.DB // nil when no -index path was given
}

// OpenStore prepares a Store rooted at outdir. If indexPath is
// non-empty, an index.go-backed SQLite mirror is opened (created if
// necessary).
func OpenStore(outdir, host, mbox, indexPath string) (*Store, error) {
	s := &Store{OutDir: outdir, Host: host, Mbox: mbox}
	if indexPath != "" {
		db, err := openIndex(indexPath)
		if err != nil {
			return nil, newError(imap.KindIO, err, "opening index %s", indexPath)
		}
		s.db = db
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) prefix() string {
	return s.Host + "_" + s.Mbox + "_"
}

// Inventory scans OutDir for artifacts belonging to (Host, Mbox),
// classifying each by its filename suffix, per §4.4's contract. The
// result always comes from the directory scan; when an index is
// attached, its rows for (Host, Mbox) are then replaced with that
// result, so a stale index never causes an incorrect inventory.
func (s *Store) Inventory() (Inventory, error) {
	inv := newInventory()

	entries, err := os.ReadDir(s.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			return inv, nil
		}
		return inv, newError(imap.KindIO, err, "reading output directory %s", s.OutDir)
	}

	prefix := s.prefix()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		rest := strings.TrimPrefix(name, prefix)

		var headersOnly bool
		var uidStr string
		switch {
		case strings.HasSuffix(rest, "_headers.eml"):
			headersOnly = true
			uidStr = strings.TrimSuffix(rest, "_headers.eml")
		case strings.HasSuffix(rest, ".eml"):
			uidStr = strings.TrimSuffix(rest, ".eml")
		default:
			continue
		}

		uid, err := strconv.ParseUint(uidStr, 10, 32)
		if err != nil {
			continue // non-numeric middle segment: not ours, per §4.4
		}

		if headersOnly {
			inv.HeadersOnly[uint32(uid)] = true
		} else {
			inv.Full[uint32(uid)] = true
		}
	}

	if s.db != nil {
		if err := s.reconcileIndex(inv); err != nil {
			return inv, err
		}
	}

	return inv, nil
}

func (s *Store) markerPath() string {
	return filepath.Join(s.OutDir, fmt.Sprintf("%s_uidvalidity_%s", s.Host, s.Mbox))
}

// ReadMarker reads the stored UIDVALIDITY for (Host, Mbox), reporting
// ok=false if no marker exists yet.
func (s *Store) ReadMarker() (value uint32, ok bool, err error) {
	data, err := os.ReadFile(s.markerPath())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, newError(imap.KindIO, err, "reading UIDVALIDITY marker")
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		return 0, false, newError(imap.KindIO, err, "parsing UIDVALIDITY marker contents")
	}
	return uint32(n), true, nil
}

// WriteMarker atomically replaces the UIDVALIDITY marker's contents:
// write to a temp file in the same directory, then rename over the
// target, so a reader never observes a partially written marker.
func (s *Store) WriteMarker(value uint32) error {
	if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
		return newError(imap.KindIO, err, "creating output directory %s", s.OutDir)
	}
	path := s.markerPath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(uint64(value), 10)), 0o644); err != nil {
		return newError(imap.KindIO, err, "writing UIDVALIDITY marker")
	}
	if err := os.Rename(tmp, path); err != nil {
		return newError(imap.KindIO, err, "replacing UIDVALIDITY marker")
	}
	if s.db != nil {
		if err := indexSetMarker(s.db, s.Host, s.Mbox, value); err != nil {
			return newError(imap.KindIO, err, "updating index marker")
		}
	}
	return nil
}

// Invalidate removes every artifact belonging to (Host, Mbox) —
// matched by the stricter "<host>_<mailbox>_" prefix, per §9's
// resolution of the original tool's looser ambiguity — ahead of a
// UIDVALIDITY change.
func (s *Store) Invalidate() error {
	entries, err := os.ReadDir(s.OutDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return newError(imap.KindIO, err, "reading output directory %s", s.OutDir)
	}

	prefix := s.prefix()
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(s.OutDir, e.Name())); err != nil {
			return newError(imap.KindIO, err, "removing stale artifact %s", e.Name())
		}
	}

	if s.db != nil {
		if err := indexInvalidate(s.db, s.Host, s.Mbox); err != nil {
			return newError(imap.KindIO, err, "invalidating index entries")
		}
	}
	return nil
}

// WriteMessage persists one message's raw bytes under the §3 naming
// convention. If headersOnly is false, any existing headers-only
// artifact for the same UID is removed first so a later reader never
// observes both forms for one UID (§4.4's atomic-upgrade rule).
func (s *Store) WriteMessage(uid uint32, raw []byte, headersOnly bool) error {
	if err := os.MkdirAll(s.OutDir, 0o755); err != nil {
		return newError(imap.KindIO, err, "creating output directory %s", s.OutDir)
	}

	if !headersOnly {
		old := filepath.Join(s.OutDir, s.artifactName(uid, true))
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			return newError(imap.KindIO, err, "removing superseded headers-only artifact for UID %d", uid)
		}
	}

	name := s.artifactName(uid, headersOnly)
	path := filepath.Join(s.OutDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return newError(imap.KindIO, err, "writing message UID %d", uid)
	}

	if s.db != nil {
		if err := indexUpsert(s.db, s.Host, s.Mbox, uid, headersOnly); err != nil {
			return newError(imap.KindIO, err, "updating index for UID %d", uid)
		}
	}
	return nil
}

func (s *Store) artifactName(uid uint32, headersOnly bool) string {
	if headersOnly {
		return fmt.Sprintf("%s%d_headers.eml", s.prefix(), uid)
	}
	return fmt.Sprintf("%s%d.eml", s.prefix(), uid)
}

// newError mirrors imap.newError's shape for the imapsync package's
// own error sites (store, synchronizer, CLI), so every boundary in
// the run surfaces the same §7 taxonomy regardless of which package
// raised it.
func newError(kind imap.Kind, cause error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		cause = errors.Wrap(cause, msg)
	}
	return &imap.Error{Kind: kind, Message: msg, Cause: cause}
}

