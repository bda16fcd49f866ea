//go:build integration

package tally

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
	"votacao/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.cache = NewRedis(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) TestSeedIncrementAndCount() {
	agendaID := id.NewAgendaID()
	yes, no, err := s.cache.Counts(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Zero(yes + no)

	s.Require().NoError(s.cache.Seed(s.ctx, agendaID))
	s.Require().NoError(s.cache.Increment(s.ctx, agendaID, models.ChoiceYes))
	s.Require().NoError(s.cache.Seed(s.ctx, agendaID))
	s.Require().NoError(s.cache.Increment(s.ctx, agendaID, models.ChoiceNo))

	yes, no, err = s.cache.Counts(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Equal(int64(1), yes)
	s.Equal(int64(1), no)
}

func (s *RedisCacheSuite) TestConcurrentIncrements() {
	agendaID := id.NewAgendaID()
	var wg sync.WaitGroup
	for range 100 {
		wg.Go(func() {
			s.NoError(s.cache.Increment(s.ctx, agendaID, models.ChoiceYes))
		})
	}
	wg.Wait()

	yes, _, err := s.cache.Counts(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Equal(int64(100), yes)
}

func (s *RedisCacheSuite) TestSetOverwrites() {
	agendaID := id.NewAgendaID()
	s.Require().NoError(s.cache.Increment(s.ctx, agendaID, models.ChoiceYes))
	s.Require().NoError(s.cache.Set(s.ctx, agendaID, 10, 20))

	yes, no, err := s.cache.Counts(s.ctx, agendaID)
	s.Require().NoError(err)
	s.Equal(int64(10), yes)
	s.Equal(int64(20), no)
}
