package lock

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "career-coach:lock:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease never removes a lock taken over by another process.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker hands out expiring leases backed by SET NX PX.
type RedisLocker struct {
	client redis.UniversalClient
	token  func() string
}

func NewRedisLocker(client redis.UniversalClient) *RedisLocker {
	return &RedisLocker{client: client, token: uuid.NewString}
}

// NewRedisClient parses a redis:// or rediss:// URL and checks connectivity.
func NewRedisClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, crerr.Wrap(err, "parse REDIS_URL")
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrap(err, "ping redis")
	}
	return client, nil
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if ttl <= 0 {
		return nil, false, crerr.New("lock ttl must be > 0")
	}

	fullKey := keyPrefix + key
	token := l.token()
	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, false, crerr.Wrapf(err, "acquire lock %q", key)
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err(); err != nil && !crerr.Is(err, redis.Nil) {
			return crerr.Wrapf(err, "release lock %q", key)
		}
		return nil
	}
	return release, true, nil
}
