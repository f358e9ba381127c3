package booking

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still carries our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every instance pointed at the same Redis.
type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisLocker returns a locker whose locks expire after ttl if the holder
// dies without releasing them.
func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: 25 * time.Millisecond, prefix: "booking-lock"}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + ":" + key
	token := uuid.NewString()

	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %s: %w", k, err)
		}
		if ok {
			break
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(k, token) })
	}, nil
}

func (l *RedisLocker) release(k, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil {
		log.Printf("Failed to release lock %s: %v", k, err)
	}
}
