package credstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared-vault backend for kiosk fleets where several thin
// terminals present one operator session. Writes are per-key, so cross-key
// consistency is best-effort; the file store is the default for single
// devices.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed credential store scoped under the
// service namespace.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "cred:" + ServiceNamespace + ":",
	}
}

func (r *RedisStore) key(k Key) string {
	return r.prefix + string(k)
}

func (r *RedisStore) Get(ctx context.Context, key Key) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisStore) Set(ctx context.Context, key Key, value string) error {
	// Delete-then-insert in one transaction, mirroring the replace
	// semantics the file store gets for free.
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(key))
	pipe.Set(ctx, r.key(key), value, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("credstore: redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key Key) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *RedisStore) ClearAll(ctx context.Context) error {
	keys := make([]string, 0, len(Keys))
	for _, k := range Keys {
		keys = append(keys, r.key(k))
	}
	return r.client.Del(ctx, keys...).Err()
}
