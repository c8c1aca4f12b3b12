package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vbonduro/housecheck/internal/backup"
)

// RedisBackupStore keeps backups as JSON strings under session:<id>. A
// positive ttl expires abandoned backups.
type RedisBackupStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewRedisBackupStore(client *goredis.Client, ttl time.Duration) *RedisBackupStore {
	return &RedisBackupStore{client: client, ttl: ttl}
}

func (s *RedisBackupStore) Save(ctx context.Context, entry *backup.Entry) error {
	data, err := backup.Encode(entry)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, backup.Key(entry.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

func (s *RedisBackupStore) Load(ctx context.Context, sessionID string) (*backup.Entry, error) {
	data, err := s.client.Get(ctx, backup.Key(sessionID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup: %w", err)
	}
	return backup.Decode(data)
}

func (s *RedisBackupStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, backup.Key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}
	return nil
}
