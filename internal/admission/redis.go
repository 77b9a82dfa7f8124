package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "admission:"

// admitScript increments KEYS[1] unless it already reached ARGV[1].
// ARGV[2] seeds a missing key, ARGV[3] is the expiry in milliseconds (0 keeps it forever).
var admitScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current then
  current = tonumber(current)
else
  current = tonumber(ARGV[2])
end
local limit = tonumber(ARGV[1])
if current >= limit then
  return {0, current}
end
current = current + 1
redis.call('SET', KEYS[1], current)
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return {1, current}
`)

var releaseScript = redis.NewScript(`
local current = tonumber(redis.call('GET', KEYS[1]) or '0')
if current > 0 then
  return redis.call('DECR', KEYS[1])
end
return 0
`)

// RedisGate shares counters between service replicas.
type RedisGate struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
	seed   SeedFunc
}

// NewRedisGate builds a gate on top of client. A zero ttl keeps counters forever;
// expired counters are re-seeded from seed on next use.
func NewRedisGate(client *redis.Client, limit int, ttl time.Duration, seed SeedFunc) *RedisGate {
	return &RedisGate{client: client, limit: limit, ttl: ttl, seed: seed}
}

func (g *RedisGate) Limit() int {
	return g.limit
}

func (g *RedisGate) key(municipality string, scheduledAt time.Time) string {
	return keyPrefix + Key(municipality, scheduledAt)
}

func (g *RedisGate) seedValue(ctx context.Context, key, municipality string, scheduledAt time.Time) (int, error) {
	if g.seed == nil {
		return 0, nil
	}
	exists, err := g.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("check admission key: %w", err)
	}
	if exists > 0 {
		return 0, nil
	}
	return g.seed(ctx, municipality, Day(scheduledAt))
}

func (g *RedisGate) Admit(ctx context.Context, municipality string, scheduledAt time.Time) (Decision, error) {
	key := g.key(municipality, scheduledAt)
	seed, err := g.seedValue(ctx, key, municipality, scheduledAt)
	if err != nil {
		return Decision{}, err
	}

	res, err := admitScript.Run(ctx, g.client, []string{key}, g.limit, seed, g.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("run admission script: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("unexpected admission script reply %v", res)
	}
	return Decision{Allowed: res[0] == 1, Admitted: int(res[1]), Limit: g.limit}, nil
}

func (g *RedisGate) Release(ctx context.Context, municipality string, scheduledAt time.Time) error {
	if err := releaseScript.Run(ctx, g.client, []string{g.key(municipality, scheduledAt)}).Err(); err != nil {
		return fmt.Errorf("run release script: %w", err)
	}
	return nil
}

func (g *RedisGate) Count(ctx context.Context, municipality string, scheduledAt time.Time) (int, error) {
	key := g.key(municipality, scheduledAt)
	n, err := g.client.Get(ctx, key).Int()
	if err == redis.Nil {
		if g.seed == nil {
			return 0, nil
		}
		return g.seed(ctx, municipality, Day(scheduledAt))
	}
	if err != nil {
		return 0, fmt.Errorf("read admission counter: %w", err)
	}
	return n, nil
}
