package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"willvault/api/internal/will"
)

// SQLiteSnapshots is the local snapshot store used when no Redis is
// configured. Rows carry their own expiry; expired rows read as missing.
type SQLiteSnapshots struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLiteSnapshots opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway store.
func OpenSQLiteSnapshots(ctx context.Context, path string) (*SQLiteSnapshots, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{"PRAGMA busy_timeout = 5000"}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL", "PRAGMA synchronous = NORMAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			session_id TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			expires_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return &SQLiteSnapshots{db: db, ttl: SnapshotTTL, now: time.Now}, nil
}

func (s *SQLiteSnapshots) SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, _ string) error {
	payload, err := will.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	now := s.now()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (session_id, data, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			data=excluded.data, expires_at=excluded.expires_at, updated_at=excluded.updated_at
	`, sessionID, payload, now.Add(s.ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshots) LoadSnapshot(ctx context.Context, sessionID string) (will.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM snapshots WHERE session_id = ? AND expires_at > ?`,
		sessionID, s.now().UnixMilli(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return will.Snapshot{}, false, nil
	}
	if err != nil {
		return will.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := will.DecodeSnapshot(payload)
	if err != nil {
		return will.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *SQLiteSnapshots) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// CleanupExpired drops expired rows and reports how many went.
func (s *SQLiteSnapshots) CleanupExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE expires_at <= ?`, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *SQLiteSnapshots) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteSnapshots) Close() error {
	return s.db.Close()
}
