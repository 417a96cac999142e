package session

import (
	"context"
	"time"

	apperrors "github.com/clingclang/clingclang/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

var _ Persister = (*RedisPersister)(nil)

// RedisPersister keeps the session in a Redis hash so several client processes
// can share one login.
type RedisPersister struct {
	client *redis.Client
	key    string
}

func NewRedisPersister(client *redis.Client, key string) *RedisPersister {
	return &RedisPersister{client: client, key: key}
}

// DialRedisPersister connects to addr and checks the connection before use.
func DialRedisPersister(addr, password string, db int, key string) (*RedisPersister, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, apperrors.Wrapf(err, "[session DialRedisPersister] redis connection failed")
	}
	return NewRedisPersister(client, key), nil
}

func (rp *RedisPersister) Load() (map[string]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	values, err := rp.client.HGetAll(ctx, rp.key).Result()
	if err != nil {
		return nil, apperrors.Wrapf(err, "[RedisPersister Load] hgetall %s", rp.key)
	}
	return values, nil
}

// Save replaces the whole hash in one MULTI/EXEC so readers never see a mix of
// old and new fields.
func (rp *RedisPersister) Save(values map[string]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}

	_, err := rp.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rp.key)
		pipe.HSet(ctx, rp.key, fields)
		return nil
	})
	if err != nil {
		return apperrors.Wrapf(err, "[RedisPersister Save] %s", rp.key)
	}
	return nil
}

func (rp *RedisPersister) Delete() error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := rp.client.Del(ctx, rp.key).Err(); err != nil {
		return apperrors.Wrapf(err, "[RedisPersister Delete] %s", rp.key)
	}
	return nil
}

// Close releases the underlying connection pool.
func (rp *RedisPersister) Close() error {
	return rp.client.Close()
}
