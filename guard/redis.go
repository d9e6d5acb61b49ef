package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	logger "github.com/sirupsen/logrus"
)

const DefaultLockTTL = 10 * time.Minute

// Deletes the lock only while it still holds our token, so a lock that
// expired and was taken by another process is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard shares task tags between processes mirroring into the same
// deployment. A crashed holder loses its tag once the TTL expires.
type RedisGuard struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisGuard{rdb: rdb, prefix: prefix, ttl: ttl}
}

// DialRedisGuard connects to addr and checks the connection.
func DialRedisGuard(ctx context.Context, addr string, ttl time.Duration) (*RedisGuard, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisGuard(rdb, "mirror:guard:", ttl), nil
}

func (g *RedisGuard) key(tag string) string {
	return g.prefix + tag
}

func (g *RedisGuard) Acquire(ctx context.Context, tag string) (func(), error) {
	key := g.key(tag)
	token := uuid.NewString()

	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("setnx failed: %w", err)
	}
	if !ok {
		return nil, ErrAlreadyProcessing
	}

	return func() {
		// the caller's context may already be cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, g.rdb, []string{key}, token).Err(); err != nil {
			logger.WithFields(logger.Fields{
				"task": tag,
				"err":  err,
			}).Error("failed to release task lock")
		}
	}, nil
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}

var (
	_ Locker = (*Guard)(nil)
	_ Locker = (*RedisGuard)(nil)
)
