//go:build integration

package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"alertcast/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	ctx   context.Context
	redis *containers.RedisContainer
	store *RedisInteractionStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration tests in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.store = NewRedisInteractionStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisStoreSuite) TestViewsAccumulate() {
	for range 5 {
		s.Require().NoError(s.store.RecordView(s.ctx, 1))
	}

	views, acks, err := s.store.Counts(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint64(5), views)
	s.Equal(uint64(0), acks)
}

func (s *RedisStoreSuite) TestAcknowledgeOncePerUser() {
	s.Require().NoError(s.store.Acknowledge(s.ctx, 1, "user1"))
	s.ErrorIs(s.store.Acknowledge(s.ctx, 1, "user1"), ErrAlreadyExists)
	s.Require().NoError(s.store.Acknowledge(s.ctx, 1, "user2"))

	_, acks, err := s.store.Counts(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint64(2), acks)

	acked, err := s.store.HasAcknowledged(s.ctx, 1, "user1")
	s.Require().NoError(err)
	s.True(acked)

	acked, err = s.store.HasAcknowledged(s.ctx, 1, "user3")
	s.Require().NoError(err)
	s.False(acked)
}

func (s *RedisStoreSuite) TestCountsIsolatedPerAlert() {
	s.Require().NoError(s.store.RecordView(s.ctx, 1))
	s.Require().NoError(s.store.Acknowledge(s.ctx, 2, "user1"))

	views, acks, err := s.store.Counts(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint64(1), views)
	s.Equal(uint64(0), acks)

	views, acks, err = s.store.Counts(s.ctx, 2)
	s.Require().NoError(err)
	s.Equal(uint64(0), views)
	s.Equal(uint64(1), acks)
}

func (s *RedisStoreSuite) TestConcurrentDuplicateAcknowledgment() {
	const goroutines = 16
	var wg sync.WaitGroup
	results := make(chan error, goroutines)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.store.Acknowledge(s.ctx, 1, "racer")
		}()
	}
	wg.Wait()
	close(results)

	var wins int
	for err := range results {
		if err == nil {
			wins++
		} else {
			s.ErrorIs(err, ErrAlreadyExists)
		}
	}
	s.Equal(1, wins)

	_, acks, err := s.store.Counts(s.ctx, 1)
	s.Require().NoError(err)
	s.Equal(uint64(1), acks)
}
