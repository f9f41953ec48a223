package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"willvault/api/internal/will"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, display_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`, user.ID, user.Email, user.DisplayName, user.PasswordHash).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return s.getUser(ctx, `WHERE email=$1`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.getUser(ctx, `WHERE id=$1`, userID)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at FROM users `+where, arg,
	).Scan(&user.ID, &user.Email, &user.DisplayName, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token_hash) DO UPDATE SET user_id=EXCLUDED.user_id, expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

// LookupRefreshSession returns the owner of a live refresh token.
func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.email, u.display_name
		FROM refresh_sessions rs
		JOIN users u ON u.id = rs.user_id
		WHERE rs.token_hash = $1
			AND rs.revoked_at IS NULL
			AND rs.expires_at > NOW()
	`, tokenHash).Scan(&user.ID, &user.Email, &user.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// SaveDocument upserts the owner's single will_data row. Each section is
// stored as its own JSONB column.
func (s *PostgresStore) SaveDocument(ctx context.Context, doc will.Document, ownerID string) (will.Document, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if !doc.Status.Valid() {
		doc.Status = will.StatusDraft
	}
	personal, err := jsonColumn(doc.PersonalInfo)
	if err != nil {
		return will.Document{}, err
	}
	assets, err := jsonColumn(doc.DigitalAssets)
	if err != nil {
		return will.Document{}, err
	}
	crypto, err := jsonColumn(doc.CryptoSetup)
	if err != nil {
		return will.Document{}, err
	}
	beneficiaries, err := jsonColumn(doc.Beneficiaries)
	if err != nil {
		return will.Document{}, err
	}

	var created, updated time.Time
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO will_data (id, user_id, personal_info, digital_assets, crypto_setup, beneficiaries, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			personal_info=EXCLUDED.personal_info,
			digital_assets=EXCLUDED.digital_assets,
			crypto_setup=EXCLUDED.crypto_setup,
			beneficiaries=EXCLUDED.beneficiaries,
			status=EXCLUDED.status,
			updated_at=NOW()
		RETURNING id, created_at, updated_at
	`, doc.ID, ownerID, personal, assets, crypto, beneficiaries, string(doc.Status)).Scan(&doc.ID, &created, &updated)
	if err != nil {
		return will.Document{}, fmt.Errorf("upsert will data: %w", err)
	}
	doc.UserID = ownerID
	doc.CreatedAt = &created
	doc.UpdatedAt = &updated
	return doc, nil
}

func (s *PostgresStore) LoadDocument(ctx context.Context, ownerID string) (will.Document, bool, error) {
	var (
		doc                                     will.Document
		status                                  string
		personal, assets, crypto, beneficiaries []byte
		created, updated                        time.Time
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, personal_info, digital_assets, crypto_setup, beneficiaries, status, created_at, updated_at
		FROM will_data
		WHERE user_id=$1
	`, ownerID).Scan(&doc.ID, &doc.UserID, &personal, &assets, &crypto, &beneficiaries, &status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return will.Document{}, false, nil
	}
	if err != nil {
		return will.Document{}, false, fmt.Errorf("load will data: %w", err)
	}
	if err := decodeColumn(personal, &doc.PersonalInfo); err != nil {
		return will.Document{}, false, err
	}
	if err := decodeColumn(assets, &doc.DigitalAssets); err != nil {
		return will.Document{}, false, err
	}
	if err := decodeColumn(crypto, &doc.CryptoSetup); err != nil {
		return will.Document{}, false, err
	}
	if err := decodeColumn(beneficiaries, &doc.Beneficiaries); err != nil {
		return will.Document{}, false, err
	}
	doc.Status = will.Status(status)
	doc.CreatedAt = &created
	doc.UpdatedAt = &updated
	return doc, true, nil
}

// SaveWillContent stores the rendered preview text next to the owner's row.
func (s *PostgresStore) SaveWillContent(ctx context.Context, ownerID, content string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE will_data SET will_content=$2, updated_at=NOW() WHERE user_id=$1`, ownerID, content)
	if err != nil {
		return fmt.Errorf("save will content: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveSnapshot writes the remote copy of a wizard snapshot. Every write pushes
// expiry out to SessionTTL from now. A row owned by one user is never
// overwritten by another user or an anonymous writer.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, ownerID string) error {
	payload, err := will.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	var owner sql.NullString
	if ownerID != "" {
		owner = sql.NullString{String: ownerID, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_sessions (session_id, user_id, session_data, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (session_id) DO UPDATE SET
			user_id=COALESCE(EXCLUDED.user_id, user_sessions.user_id),
			session_data=EXCLUDED.session_data,
			expires_at=EXCLUDED.expires_at,
			updated_at=NOW()
		WHERE user_sessions.user_id IS NULL OR user_sessions.user_id = EXCLUDED.user_id
	`, sessionID, owner, payload, s.now().Add(SessionTTL))
	if err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the snapshot with UserID taken from the row owner.
func (s *PostgresStore) LoadSnapshot(ctx context.Context, sessionID string) (will.Snapshot, bool, error) {
	var (
		payload []byte
		owner   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT session_data, user_id FROM user_sessions
		WHERE session_id=$1 AND expires_at > NOW()
	`, sessionID).Scan(&payload, &owner)
	if errors.Is(err, sql.ErrNoRows) {
		return will.Snapshot{}, false, nil
	}
	if err != nil {
		return will.Snapshot{}, false, fmt.Errorf("load session snapshot: %w", err)
	}
	snap, err := will.DecodeSnapshot(payload)
	if err != nil {
		return will.Snapshot{}, false, err
	}
	if owner.Valid {
		snap.UserID = owner.String
	}
	return snap, true, nil
}

func (s *PostgresStore) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("delete session snapshot: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired snapshot rows, revoked-token entries
// past their expiry and dead refresh sessions. It returns the number of
// snapshot rows removed.
func (s *PostgresStore) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	removed, _ := res.RowsAffected()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM revoked_access_tokens WHERE expires_at <= NOW()`); err != nil {
		return removed, fmt.Errorf("delete expired revocations: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE expires_at <= NOW() OR revoked_at IS NOT NULL`); err != nil {
		return removed, fmt.Errorf("delete dead refresh sessions: %w", err)
	}
	return removed, nil
}

// Ping verifies the database connection is alive
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func jsonColumn(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode section: %w", err)
	}
	if string(raw) == "null" {
		return nil, nil
	}
	return raw, nil
}

func decodeColumn[T any](raw []byte, dst **T) error {
	if len(raw) == 0 {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("decode section: %w", err)
	}
	*dst = &v
	return nil
}
