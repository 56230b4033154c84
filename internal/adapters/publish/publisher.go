// Package publish pushes computed leaderboards to external readers.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/okian/rks/internal/domain/ranking"
)

// Publisher receives every freshly built leaderboard.
type Publisher interface {
	Publish(ctx context.Context, standings []ranking.Standing) error
}

// RedisPublisher mirrors standings into a Redis sorted set scored by rating,
// so readers can use ZREVRANGE without calling the service.
type RedisPublisher struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

var _ Publisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher writing to key on client.
func NewRedisPublisher(client *redis.Client, key string, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{client: client, key: key, timeout: defaultTimeout}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish replaces the sorted set with standings in one transaction.
func (p *RedisPublisher) Publish(ctx context.Context, standings []ranking.Standing) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	members := make([]*redis.Z, 0, len(standings))
	for _, s := range standings {
		members = append(members, &redis.Z{Score: s.Rating, Member: s.OwnerID})
	}

	// Del + ZAdd inside MULTI so readers never see a partial set.
	pipe := p.client.TxPipeline()
	pipe.Del(ctx, p.key)
	if len(members) > 0 {
		pipe.ZAdd(ctx, p.key, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, p.key, err)
	}
	return nil
}

// Close releases the underlying client.
func (p *RedisPublisher) Close() error { return p.client.Close() }
