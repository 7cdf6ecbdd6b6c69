//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	familydomain "cras-cadastro/internal/domain/family"
	recordsredis "cras-cadastro/internal/repository/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisRecordsSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	store     *recordsredis.RecordStore
}

func TestRedisRecordsSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisRecordsSuite))
}

func (s *RedisRecordsSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
	s.store = recordsredis.NewRecordStore(s.client, "")
}

func (s *RedisRecordsSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = testcontainers.TerminateContainer(s.container)
	}
}

func (s *RedisRecordsSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisRecordsSuite) TestLoadMissingKey() {
	families, err := s.store.LoadAll(context.Background())
	s.Require().NoError(err)
	s.Empty(families)
}

func (s *RedisRecordsSuite) TestConcurrentUpdates() {
	ctx := context.Background()
	const writers = 5

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.store.Update(ctx, func(families []familydomain.Family) ([]familydomain.Family, bool, error) {
				return append(families, familydomain.Family{ID: fmt.Sprintf("f-%d", i)}), true, nil
			})
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	families, err := s.store.LoadAll(ctx)
	s.Require().NoError(err)
	s.Len(families, writers)
}
