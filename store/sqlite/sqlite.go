/*
Package sqlite provides SQLite-backed implementations of the local
persistence interfaces.

PURPOSE:
  The backend owns points and payments; this store only keeps what is
  local to the engine: the authenticated session and the withdrawal
  attempt journal.

INTERFACES IMPLEMENTED:
  session.Store:         the single persisted login
  withdraw.AttemptStore: the local audit trail of withdrawal attempts

KEY TABLES:
  sessions:            at most one row (id = 1), replaced on login
  withdrawal_attempts: append-only journal, never updated or deleted

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/points.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - session/session.go: Store interface and the in-memory implementation
  - withdraw/coordinator.go: AttemptStore consumer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/relayhq/points-engine/points"
	"github.com/relayhq/points-engine/session"
	"github.com/relayhq/points-engine/withdraw"
)

// Store implements the local persistence interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Session (single row; a new login replaces the old one)
	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		token TEXT NOT NULL,
		user_id TEXT NOT NULL,
		user_name TEXT NOT NULL,
		phone_number TEXT NOT NULL DEFAULT '',
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		account_created_at TEXT NOT NULL,
		saved_at TEXT NOT NULL
	);

	-- Withdrawal attempts (append-only journal)
	CREATE TABLE IF NOT EXISTS withdrawal_attempts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		points_requested INTEGER NOT NULL,
		phone_number TEXT NOT NULL,
		outcome TEXT NOT NULL,
		reason TEXT,
		payment_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_attempts_user
		ON withdrawal_attempts(user_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_attempts_outcome
		ON withdrawal_attempts(outcome);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SESSION STORE (session.Store interface)
// =============================================================================

// Save persists the session, replacing any previous one.
func (s *Store) Save(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO sessions (id, token, user_id, user_name, phone_number, is_admin, account_created_at, saved_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			user_id = excluded.user_id,
			user_name = excluded.user_name,
			phone_number = excluded.phone_number,
			is_admin = excluded.is_admin,
			account_created_at = excluded.account_created_at,
			saved_at = excluded.saved_at
	`

	_, err := s.db.ExecContext(ctx, query,
		sess.Token,
		sess.User.ID,
		sess.User.Name,
		sess.User.PhoneNumber,
		sess.User.IsAdmin,
		sess.User.CreatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Load returns the persisted session, or points.ErrNoSession if none.
func (s *Store) Load(ctx context.Context) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		sess      session.Session
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT token, user_id, user_name, phone_number, is_admin, account_created_at FROM sessions WHERE id = 1",
	).Scan(&sess.Token, &sess.User.ID, &sess.User.Name, &sess.User.PhoneNumber, &sess.User.IsAdmin, &createdAt)

	if err == sql.ErrNoRows {
		return nil, points.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess.User.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &sess, nil
}

// Clear removes the persisted session. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = 1")
	return err
}

// =============================================================================
// ATTEMPT JOURNAL (withdraw.AttemptStore interface)
// =============================================================================

// Record appends one withdrawal attempt to the journal.
func (s *Store) Record(ctx context.Context, a withdraw.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO withdrawal_attempts
		(id, user_id, points_requested, phone_number, outcome, reason, payment_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		a.ID,
		a.UserID,
		a.PointsRequested,
		a.PhoneNumber,
		string(a.Outcome),
		nullString(a.Reason),
		nullString(a.PaymentID),
		a.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListByUser returns a user's journaled attempts, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string) ([]withdraw.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, points_requested, phone_number, outcome, reason, payment_id, created_at
		FROM withdrawal_attempts
		WHERE user_id = ?
		ORDER BY created_at DESC, id
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	var attempts []withdraw.Attempt
	for rows.Next() {
		var (
			a                  withdraw.Attempt
			outcome, createdAt string
			reason, paymentID  sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &a.PointsRequested, &a.PhoneNumber,
			&outcome, &reason, &paymentID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}

		a.Outcome = withdraw.AttemptOutcome(outcome)
		a.Reason = reason.String
		a.PaymentID = paymentID.String
		a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
