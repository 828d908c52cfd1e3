package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
)

const BackendRedis = "redis"

const keyPrefix = "org:labels"

// errStaleGeneration aborts a Set whose root was invalidated meanwhile.
var errStaleGeneration = errors.New("labels cache generation moved")

// RedisCache shares resolved mappings between server instances. Each user
// mapping lives under its own key with the TTL; a set per root lists the
// user keys resolved from that tree and a counter per root records its
// invalidations.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func userKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", keyPrefix, userID)
}

func rootKey(rootID int64) string {
	return fmt.Sprintf("%s:root:%d", keyPrefix, rootID)
}

func generationKey(rootID int64) string {
	return fmt.Sprintf("%s:gen:%d", keyPrefix, rootID)
}

func (c *RedisCache) Backend() string {
	return BackendRedis
}

func (c *RedisCache) Get(ctx context.Context, userID uint) (labels.Mapping, bool, error) {
	raw, err := c.client.Get(ctx, userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "redis get")
	}
	var m labels.Mapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false, errors.Wrap(err, "decode cached labels")
	}
	return m, true, nil
}

func (c *RedisCache) Generation(ctx context.Context, rootID int64) (uint64, error) {
	gen, err := c.client.Get(ctx, generationKey(rootID)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "redis get generation")
	}
	return gen, nil
}

// Set watches the generation key of rootID and skips the write when it no
// longer equals generation or changes before the transaction commits.
func (c *RedisCache) Set(ctx context.Context, rootID int64, generation uint64, userID uint, m labels.Mapping) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "encode labels")
	}
	key := userKey(userID)
	if rootID == 0 {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return errors.Wrap(err, "redis set")
		}
		return nil
	}

	genKey := generationKey(rootID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Uint64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, c.ttl)
			pipe.SAdd(ctx, rootKey(rootID), key)
			pipe.Expire(ctx, rootKey(rootID), c.ttl)
			return nil
		})
		return err
	}, genKey)
	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return errors.Wrap(err, "redis set")
	}
}

// InvalidateRoot bumps the generation before dropping the entries so a Set
// already in flight for this root is discarded.
func (c *RedisCache) InvalidateRoot(ctx context.Context, rootID int64) error {
	if err := c.client.Incr(ctx, generationKey(rootID)).Err(); err != nil {
		return errors.Wrap(err, "redis incr generation")
	}
	idx := rootKey(rootID)
	members, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		return errors.Wrap(err, "redis smembers")
	}
	keys := append(members, idx)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "redis del")
	}
	return nil
}
