package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shoppingcart/internal/domain"
)

// RedisRepository stores each cart under "<table>:<id>.<instance>" and keeps
// order queues as plain lists.
type RedisRepository struct {
	client redis.UniversalClient
	table  string
	logger *zap.Logger
}

var (
	_ Repository = (*RedisRepository)(nil)
	_ OrderQueue = (*RedisRepository)(nil)
)

// NewRedis builds a key-value backed repository. An empty table selects
// DefaultTable as key prefix.
func NewRedis(client redis.UniversalClient, table string, logger *zap.Logger) *RedisRepository {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRepository{client: client, table: table, logger: logger}
}

func (r *RedisRepository) key(id, instance string) string {
	return fmt.Sprintf("%s:%s.%s", r.table, id, instance)
}

// CreateOrUpdate overwrites the value; any TTL on the key is cleared.
func (r *RedisRepository) CreateOrUpdate(ctx context.Context, id, instance string, content []byte) error {
	key := r.key(id, instance)
	if err := r.client.Set(ctx, key, content, 0).Err(); err != nil {
		r.logger.Error("cart repo: set", zap.String("key", key), zap.Error(err))
		return err
	}
	r.logger.Debug("cart repo: set", zap.String("key", key), zap.Int("bytes", len(content)))
	return nil
}

func (r *RedisRepository) FindByIDAndInstanceName(ctx context.Context, id, instance string) (*domain.StoredCart, error) {
	key := r.key(id, instance)
	content, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("cart repo: get not found", zap.String("key", key))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("cart repo: get", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return &domain.StoredCart{ID: id, Instance: instance, Content: content}, nil
}

func (r *RedisRepository) Remove(ctx context.Context, id, instance string) error {
	key := r.key(id, instance)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Error("cart repo: del", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

func (r *RedisRepository) SetExpireTime(ctx context.Context, id, instance string, ttl time.Duration) error {
	key := r.key(id, instance)
	if err := r.client.Expire(ctx, key, ttl).Err(); err != nil {
		r.logger.Error("cart repo: expire", zap.String("key", key), zap.Duration("ttl", ttl), zap.Error(err))
		return err
	}
	return nil
}

// RenameCart moves the cart to newID. It does nothing when the source key is
// absent and returns domain.ErrAlreadyExists, leaving both keys untouched,
// when the destination is taken.
func (r *RedisRepository) RenameCart(ctx context.Context, oldID, newID, instance string) error {
	oldKey, newKey := r.key(oldID, instance), r.key(newID, instance)

	n, err := r.client.Exists(ctx, oldKey).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		r.logger.Debug("cart repo: rename source missing", zap.String("key", oldKey))
		return nil
	}

	renamed, err := r.client.RenameNX(ctx, oldKey, newKey).Result()
	if err != nil {
		r.logger.Error("cart repo: renamenx", zap.String("from", oldKey), zap.String("to", newKey), zap.Error(err))
		return err
	}
	if !renamed {
		r.logger.Info("cart repo: rename destination exists", zap.String("from", oldKey), zap.String("to", newKey))
		return errors.Wrapf(domain.ErrAlreadyExists, "cart %s", newKey)
	}
	return nil
}
