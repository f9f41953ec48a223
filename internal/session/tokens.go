package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"willvault/api/internal/store"
)

type tokenData struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisTokens keeps refresh-token sessions in Redis with the token's own
// expiry as TTL.
type RedisTokens struct {
	client *redis.Client
	prefix string
	users  UserLookup
}

// UserLookup resolves the account behind a token. Optional.
type UserLookup interface {
	GetUserByID(ctx context.Context, userID string) (store.User, error)
}

func NewRedisTokens(client *redis.Client, users UserLookup) *RedisTokens {
	return &RedisTokens{client: client, prefix: "refresh:", users: users}
}

func (s *RedisTokens) key(tokenHash string) string {
	return s.prefix + tokenHash
}

func (s *RedisTokens) SaveRefreshSession(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	payload, err := json.Marshal(tokenData{UserID: userID, CreatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal token data: %w", err)
	}
	if err := s.client.Set(ctx, s.key(tokenHash), payload, ttl).Err(); err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokens) LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error) {
	raw, err := s.client.Get(ctx, s.key(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return store.User{}, store.ErrNotFound
	}
	if err != nil {
		return store.User{}, fmt.Errorf("lookup refresh token: %w", err)
	}

	var data tokenData
	if err := json.Unmarshal(raw, &data); err != nil {
		return store.User{}, fmt.Errorf("unmarshal token data: %w", err)
	}
	if s.users != nil {
		return s.users.GetUserByID(ctx, data.UserID)
	}
	return store.User{ID: data.UserID, Email: data.Email}, nil
}

func (s *RedisTokens) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	if err := s.client.Del(ctx, s.key(tokenHash)).Err(); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (s *RedisTokens) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
