package tally

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"votacao/internal/voting/models"
	id "votacao/pkg/domain"
)

const (
	fieldYes = "yes"
	fieldNo  = "no"
)

// RedisCache keeps counters in one hash per agenda so that several
// processes share a tally.
type RedisCache struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable) *RedisCache {
	return &RedisCache{client: client, prefix: "tally:"}
}

func (r *RedisCache) key(agendaID id.AgendaID) string {
	return r.prefix + agendaID.String()
}

func (r *RedisCache) Seed(ctx context.Context, agendaID id.AgendaID) error {
	key := r.key(agendaID)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSetNX(ctx, key, fieldYes, 0)
		p.HSetNX(ctx, key, fieldNo, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed tally: %w", err)
	}
	return nil
}

func (r *RedisCache) Increment(ctx context.Context, agendaID id.AgendaID, choice models.Choice) error {
	var field string
	switch choice {
	case models.ChoiceYes:
		field = fieldYes
	case models.ChoiceNo:
		field = fieldNo
	default:
		return fmt.Errorf("invalid choice %d", int(choice))
	}
	if err := r.client.HIncrBy(ctx, r.key(agendaID), field, 1).Err(); err != nil {
		return fmt.Errorf("increment tally: %w", err)
	}
	return nil
}

func (r *RedisCache) Counts(ctx context.Context, agendaID id.AgendaID) (int64, int64, error) {
	vals, err := r.client.HMGet(ctx, r.key(agendaID), fieldYes, fieldNo).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, 0, fmt.Errorf("read tally: %w", err)
	}
	yes, err := parseCounter(vals, 0)
	if err != nil {
		return 0, 0, err
	}
	no, err := parseCounter(vals, 1)
	if err != nil {
		return 0, 0, err
	}
	return yes, no, nil
}

func (r *RedisCache) Set(ctx context.Context, agendaID id.AgendaID, yes, no int64) error {
	if err := r.client.HSet(ctx, r.key(agendaID), fieldYes, yes, fieldNo, no).Err(); err != nil {
		return fmt.Errorf("set tally: %w", err)
	}
	return nil
}

func parseCounter(vals []any, i int) (int64, error) {
	if i >= len(vals) || vals[i] == nil {
		return 0, nil
	}
	s, ok := vals[i].(string)
	if !ok {
		return 0, fmt.Errorf("unexpected tally value %T", vals[i])
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse tally value %q: %w", s, err)
	}
	return n, nil
}
