package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"willvault/api/internal/will"
)

// SnapshotTTL bounds how long an anonymous snapshot survives without a write.
const SnapshotTTL = 7 * 24 * time.Hour

// RedisSnapshots is the local snapshot store for anonymous sessions. Each
// snapshot lives under snapshot:<session id> and every save resets its TTL.
type RedisSnapshots struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{client: client, prefix: "snapshot:", ttl: SnapshotTTL}
}

func (s *RedisSnapshots) key(sessionID string) string {
	return s.prefix + sessionID
}

// SaveSnapshot ignores ownerID; anonymous snapshots have no owner.
func (s *RedisSnapshots) SaveSnapshot(ctx context.Context, sessionID string, snap will.Snapshot, _ string) error {
	payload, err := will.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sessionID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshots) LoadSnapshot(ctx context.Context, sessionID string) (will.Snapshot, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return will.Snapshot{}, false, nil
	}
	if err != nil {
		return will.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}
	snap, err := will.DecodeSnapshot(raw)
	if err != nil {
		return will.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (s *RedisSnapshots) DeleteSnapshot(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (s *RedisSnapshots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
