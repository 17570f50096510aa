// Package ledger persists a durable, queryable audit record of every
// session: when it ran, how each stage ended, and a hash of what was
// submitted. It is additive bookkeeping, never load-bearing for cleanup or
// the security invariants the isolation kernel enforces.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
	_ "modernc.org/sqlite"

	sberrors "myrbox/errors"
)

// Row is one session's audit record.
type Row struct {
	SessionID       string
	StartedAt       time.Time
	EndedAt         time.Time
	CompileExit     *int
	RunExit         *int
	TimedOut        bool
	LogName         string
	SubmissionBytes int
	SubmissionHash  string
}

// Ledger wraps a pure-Go (no cgo) SQLite database under the supervisor's
// state directory. modernc.org/sqlite is chosen specifically because this
// binary runs jailed and setuid-adjacent: a cgo-linked driver would pull in
// libc surface area outside the audit boundary this project otherwise
// controls precisely.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the ledger database at path and
// ensures its schema exists.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, sberrors.WrapDetail(err, sberrors.KindSetup, "open ledger", path)
	}

	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id       TEXT PRIMARY KEY,
	started_at       TEXT NOT NULL,
	ended_at         TEXT NOT NULL,
	compile_exit     INTEGER,
	run_exit         INTEGER,
	timed_out        INTEGER NOT NULL,
	log_name         TEXT NOT NULL,
	submission_bytes INTEGER NOT NULL,
	submission_hash  TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, sberrors.Wrap(err, sberrors.KindSetup, "create ledger schema")
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts row, deriving SessionID (a correlation UUID, never used as
// a directory name or capability) and SubmissionHash from submission if not
// already set.
func (l *Ledger) Record(row Row, submission []byte) error {
	if row.SessionID == "" {
		row.SessionID = uuid.NewString()
	}
	if row.SubmissionHash == "" {
		row.SubmissionHash = hashHex(submission)
	}

	_, err := l.db.Exec(
		`INSERT INTO sessions (session_id, started_at, ended_at, compile_exit, run_exit, timed_out, log_name, submission_bytes, submission_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SessionID,
		row.StartedAt.UTC().Format(time.RFC3339Nano),
		row.EndedAt.UTC().Format(time.RFC3339Nano),
		row.CompileExit,
		row.RunExit,
		row.TimedOut,
		row.LogName,
		row.SubmissionBytes,
		row.SubmissionHash,
	)
	if err != nil {
		return sberrors.Wrap(err, sberrors.KindInternal, "record ledger row")
	}
	return nil
}

// hashHex returns the BLAKE2b-256 digest of data, hex-encoded.
func hashHex(data []byte) string {
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// CountBySubmissionHash returns how many rows share the given submission
// hash, used by the round-trip testable property: the same submission
// twice yields two rows with identical hash and distinct session IDs.
func (l *Ledger) CountBySubmissionHash(hash string) (int, error) {
	var n int
	err := l.db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE submission_hash = ?`, hash).Scan(&n)
	if err != nil {
		return 0, sberrors.Wrap(err, sberrors.KindInternal, "query ledger")
	}
	return n, nil
}
