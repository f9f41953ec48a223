package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"willvault/api/internal/store"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := DialRedis(context.Background(), "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("dial redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

type fakeUsers map[string]store.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (store.User, error) {
	u, ok := f[id]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return u, nil
}

func TestDialRedisRejectsBadURL(t *testing.T) {
	if _, err := DialRedis(context.Background(), "://nope"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveAndLookupRefreshSession(t *testing.T) {
	client, _ := setupTestRedis(t)
	tokens := NewRedisTokens(client, fakeUsers{"user-123": {ID: "user-123", Email: "jane@example.com"}})
	ctx := context.Background()

	if err := tokens.SaveRefreshSession(ctx, "hash-1", "user-123", time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	user, err := tokens.LookupRefreshSession(ctx, "hash-1")
	if err != nil {
		t.Fatalf("LookupRefreshSession failed: %v", err)
	}
	if user.Email != "jane@example.com" {
		t.Errorf("expected resolved user, got %+v", user)
	}
}

func TestLookupExpiredRefreshSession(t *testing.T) {
	client, mr := setupTestRedis(t)
	tokens := NewRedisTokens(client, nil)
	ctx := context.Background()

	if err := tokens.SaveRefreshSession(ctx, "hash-2", "user-456", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if _, err := tokens.LookupRefreshSession(ctx, "hash-2"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveAlreadyExpiredTokenIsNoOp(t *testing.T) {
	client, mr := setupTestRedis(t)
	tokens := NewRedisTokens(client, nil)

	if err := tokens.SaveRefreshSession(context.Background(), "hash-3", "user", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("SaveRefreshSession failed: %v", err)
	}
	if mr.Exists("refresh:hash-3") {
		t.Fatal("expired token should not be stored")
	}
}

func TestRevokeRefreshSession(t *testing.T) {
	client, _ := setupTestRedis(t)
	tokens := NewRedisTokens(client, nil)
	ctx := context.Background()

	_ = tokens.SaveRefreshSession(ctx, "hash-4", "user-789", time.Now().Add(time.Hour))
	if err := tokens.RevokeRefreshSession(ctx, "hash-4"); err != nil {
		t.Fatalf("RevokeRefreshSession failed: %v", err)
	}
	if _, err := tokens.LookupRefreshSession(ctx, "hash-4"); err == nil {
		t.Fatal("expected revoked token to be gone")
	}
	if err := tokens.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
