package main

import (
	"database/sql"
)

// openIndex opens (creating if necessary) the SQLite mirror named by
// path, grounded in the pack's LSFLK-raven db/sqlite.go pattern of a
// small schema applied with CREATE TABLE IF NOT EXISTS on open. The
// index is a write-only mirror: nothing reads it back, the directory
// scan in Store.Inventory remains authoritative, and reconcileIndex
// repairs the mirror from it on every run.
func openIndex(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			host TEXT NOT NULL,
			mailbox TEXT NOT NULL,
			uid INTEGER NOT NULL,
			headers_only INTEGER NOT NULL,
			PRIMARY KEY (host, mailbox, uid)
		)
	`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS markers (
			host TEXT NOT NULL,
			mailbox TEXT NOT NULL,
			uidvalidity INTEGER NOT NULL,
			PRIMARY KEY (host, mailbox)
		)
	`); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func indexUpsert(db *sql.DB, host, mbox string, uid uint32, headersOnly bool) error {
	_, err := db.Exec(
		`INSERT INTO messages (host, mailbox, uid, headers_only) VALUES (?, ?, ?, ?)
		 ON CONFLICT (host, mailbox, uid) DO UPDATE SET headers_only = excluded.headers_only`,
		host, mbox, uid, boolToInt(headersOnly))
	return err
}

func indexInvalidate(db *sql.DB, host, mbox string) error {
	_, err := db.Exec(`DELETE FROM messages WHERE host = ? AND mailbox = ?`, host, mbox)
	if err != nil {
		return err
	}
	_, err = db.Exec(`DELETE FROM markers WHERE host = ? AND mailbox = ?`, host, mbox)
	return err
}

func indexSetMarker(db *sql.DB, host, mbox string, value uint32) error {
	_, err := db.Exec(
		`INSERT INTO markers (host, mailbox, uidvalidity) VALUES (?, ?, ?)
		 ON CONFLICT (host, mailbox) DO UPDATE SET uidvalidity = excluded.uidvalidity`,
		host, mbox, value)
	return err
}

// reconcileIndex replaces the mirror's rows for (s.Host, s.Mbox) with
// what the directory scan actually found, so a mirror that drifted
// out of sync with the filesystem (e.g. a process killed mid-write)
// never misleads a later run.
func (s *Store) reconcileIndex(inv Inventory) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE host = ? AND mailbox = ?`, s.Host, s.Mbox); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO messages (host, mailbox, uid, headers_only) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for uid := range inv.Full {
		if _, err := stmt.Exec(s.Host, s.Mbox, uid, 0); err != nil {
			return err
		}
	}
	for uid := range inv.HeadersOnly {
		if _, err := stmt.Exec(s.Host, s.Mbox, uid, 1); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
