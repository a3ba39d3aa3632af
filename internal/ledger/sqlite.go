package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"intake-agent/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS intake_log (
	email           TEXT PRIMARY KEY,
	timestamp       TEXT NOT NULL,
	file_name       TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	notified_admins TEXT NOT NULL DEFAULT '',
	error           TEXT NOT NULL DEFAULT ''
)`

// SQLStore keeps the ledger in an embedded SQLite database. The primary key
// on email gives atomic check-and-insert and update-by-email without any
// file-level locking.
type SQLStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLStore opens (and if needed creates) the database at path.
func OpenSQLStore(path string) (*SQLStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("ledger: database path must not be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &SQLStore{db: db, now: time.Now}, nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) IsEmailUsed(ctx context.Context, email string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM intake_log WHERE email = ?`, email).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger: query email: %w", err)
	}
	return true, nil
}

func (s *SQLStore) RecordAttempt(ctx context.Context, email string, status domain.Status) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO intake_log (email, timestamp, status) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO NOTHING`,
		email, s.now().UTC().Format(time.RFC3339), string(status))
	if err != nil {
		return fmt.Errorf("ledger: record attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) UpdateOutcome(ctx context.Context, email, fileName string, status domain.Status, extra Extra) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO intake_log (email, timestamp, file_name, status, notified_admins, error)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET
			file_name = excluded.file_name,
			status = excluded.status,
			notified_admins = CASE WHEN excluded.notified_admins <> ''
				THEN excluded.notified_admins ELSE intake_log.notified_admins END,
			error = CASE WHEN excluded.error <> ''
				THEN excluded.error ELSE intake_log.error END`,
		email, s.now().UTC().Format(time.RFC3339), fileName, string(status),
		extra.NotifiedAdmins, extra.Error)
	if err != nil {
		return fmt.Errorf("ledger: update outcome: %w", err)
	}
	return nil
}
