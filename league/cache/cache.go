// Package cache keeps a disposable leaderboard snapshot in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Ftotnem/LEAGUE-SERVICES/shared/models"
	sharedredis "github.com/Ftotnem/LEAGUE-SERVICES/shared/redis"
)

// Snapshot is the cached value.
type Snapshot struct {
	Groups     models.Leaderboard `msgpack:"groups"`
	ComputedAt time.Time          `msgpack:"computedAt"`
}

func encodeSnapshot(s Snapshot) ([]byte, error) {
	return msgpack.Marshal(s)
}

func decodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	err := msgpack.Unmarshal(b, &s)
	return s, err
}

var errStaleGeneration = errors.New("leaderboard generation changed")

// RedisCache stores the snapshot under a single key with a TTL. A generation
// counter next to it is advanced by every Invalidate, and a snapshot is only
// stored if no invalidation happened since its computation began.
type RedisCache struct {
	client redis.UniversalClient
	key    string
	genKey string
	ttl    time.Duration
	now    func() time.Time
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{
		client: client,
		key:    sharedredis.LeaderboardSnapshotKey,
		genKey: sharedredis.LeaderboardGenerationKey,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Get returns the cached leaderboard. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context) (models.Leaderboard, bool, error) {
	b, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read leaderboard snapshot: %w", err)
	}
	snap, err := decodeSnapshot(b)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode leaderboard snapshot: %w", err)
	}
	if snap.Groups == nil {
		snap.Groups = models.Leaderboard{}
	}
	return snap.Groups, true, nil
}

// Generation returns the current invalidation count. Read it before
// computing a snapshot.
func (c *RedisCache) Generation(ctx context.Context) (int64, error) {
	gen, err := generation(ctx, c.client, c.genKey)
	if err != nil {
		return 0, fmt.Errorf("failed to read leaderboard generation: %w", err)
	}
	return gen, nil
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, cmd getter, key string) (int64, error) {
	gen, err := cmd.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// SetIfCurrent stores board when the generation still equals gen. It reports
// false, without error, when an invalidation got there first.
func (c *RedisCache) SetIfCurrent(ctx context.Context, gen int64, board models.Leaderboard) (bool, error) {
	b, err := encodeSnapshot(Snapshot{Groups: board, ComputedAt: c.now().UTC()})
	if err != nil {
		return false, fmt.Errorf("failed to encode leaderboard snapshot: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := generation(ctx, tx, c.genKey)
		if err != nil {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key, b, c.ttl)
			return nil
		})
		return err
	}, c.genKey)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("failed to write leaderboard snapshot: %w", err)
	}
}

// Invalidate drops the snapshot and advances the generation so snapshots
// computed before this call are never stored.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey)
		pipe.Del(ctx, c.key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate leaderboard snapshot: %w", err)
	}
	return nil
}

// Nop never stores anything. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context) (models.Leaderboard, bool, error) { return nil, false, nil }
func (Nop) Generation(context.Context) (int64, error)             { return 0, nil }
func (Nop) SetIfCurrent(context.Context, int64, models.Leaderboard) (bool, error) {
	return false, nil
}
func (Nop) Invalidate(context.Context) error { return nil }
