package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisInteractionStore keeps the hot interaction counters in Redis. Views
// are a plain INCR; acknowledgments use SADD, whose reply distinguishes the
// winner of a duplicate race from the losers.
type RedisInteractionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisInteractionStore(client *redis.Client) *RedisInteractionStore {
	return &RedisInteractionStore{client: client, prefix: "alertcast"}
}

func (s *RedisInteractionStore) viewKey(alertID int64) string {
	return fmt.Sprintf("%s:views:%d", s.prefix, alertID)
}

func (s *RedisInteractionStore) ackKey(alertID int64) string {
	return fmt.Sprintf("%s:acks:%d", s.prefix, alertID)
}

func (s *RedisInteractionStore) RecordView(ctx context.Context, alertID int64) error {
	if err := s.client.Incr(ctx, s.viewKey(alertID)).Err(); err != nil {
		return fmt.Errorf("record view: %w", err)
	}
	return nil
}

func (s *RedisInteractionStore) Acknowledge(ctx context.Context, alertID int64, user string) error {
	added, err := s.client.SAdd(ctx, s.ackKey(alertID), user).Result()
	if err != nil {
		return fmt.Errorf("acknowledge: %w", err)
	}
	if added == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *RedisInteractionStore) HasAcknowledged(ctx context.Context, alertID int64, user string) (bool, error) {
	member, err := s.client.SIsMember(ctx, s.ackKey(alertID), user).Result()
	if err != nil {
		return false, fmt.Errorf("has acknowledged: %w", err)
	}
	return member, nil
}

func (s *RedisInteractionStore) Counts(ctx context.Context, alertID int64) (uint64, uint64, error) {
	pipe := s.client.Pipeline()
	viewCmd := pipe.Get(ctx, s.viewKey(alertID))
	ackCmd := pipe.SCard(ctx, s.ackKey(alertID))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("interaction counts: %w", err)
	}

	views, err := viewCmd.Uint64()
	if err != nil && err != redis.Nil {
		return 0, 0, fmt.Errorf("view count: %w", err)
	}
	acks, err := ackCmd.Result()
	if err != nil {
		return 0, 0, fmt.Errorf("ack count: %w", err)
	}
	return views, uint64(acks), nil
}
