package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// GetOrders drains the list at key: every entry present at read time is
// decoded and returned, then exactly those entries are trimmed and the TTL is
// refreshed. Entries pushed after the read stay queued. If any entry fails to
// decode nothing is trimmed.
func (r *RedisRepository) GetOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error) {
	orders, err := r.readOrders(ctx, key)
	if err != nil {
		return nil, err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LTrim(ctx, key, int64(len(orders)), -1)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		r.logger.Error("cart repo: trim orders", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("cart repo: drained orders", zap.String("key", key), zap.Int("count", len(orders)))
	return orders, nil
}

// GetAndKeepOrders reads the list at key without trimming it and refreshes
// the TTL.
func (r *RedisRepository) GetAndKeepOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error) {
	orders, err := r.readOrders(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// DeleteOrders drops the first n entries of the list at key and refreshes
// the TTL.
func (r *RedisRepository) DeleteOrders(ctx context.Context, key string, n int, ttl time.Duration) error {
	if n < 0 {
		n = 0
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LTrim(ctx, key, int64(n), -1)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		r.logger.Error("cart repo: delete orders", zap.String("key", key), zap.Int("n", n), zap.Error(err))
		return err
	}
	return nil
}

func (r *RedisRepository) readOrders(ctx context.Context, key string) ([]map[string]any, error) {
	raw, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		r.logger.Error("cart repo: read orders", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	orders := make([]map[string]any, 0, len(raw))
	for i, entry := range raw {
		var order map[string]any
		if err := json.Unmarshal([]byte(entry), &order); err != nil {
			return nil, errors.Wrapf(err, "decode order %d of %s", i, key)
		}
		orders = append(orders, order)
	}
	return orders, nil
}
