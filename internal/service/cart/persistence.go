package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"shoppingcart/internal/domain"
)

const (
	// DefaultCartTTL applies when SetCartExpireTime is given no TTL.
	DefaultCartTTL = 7 * 24 * time.Hour
	// DefaultOrdersTTL applies when an order-queue call is given no TTL.
	DefaultOrdersTTL = 31 * 24 * time.Hour
)

type orderQueue interface {
	GetOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error)
	GetAndKeepOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error)
	DeleteOrders(ctx context.Context, key string, n int, ttl time.Duration) error
}

// Store writes the cart under id and the current instance. Concurrent stores
// of the same key are last-write-wins.
func (c *Cart) Store(ctx context.Context, id string) error {
	content, err := c.encode()
	if err != nil {
		return err
	}
	if err := c.repo.CreateOrUpdate(ctx, id, c.instanceName, content); err != nil {
		return err
	}
	c.logger.Debug("cart stored",
		zap.String("id", id),
		zap.String("instance", c.instanceName),
		zap.Int("items", len(c.items)),
		zap.Int("coupons", len(c.coupons)),
	)
	return nil
}

// Restore loads the cart stored under id and the current instance. When
// nothing is stored it returns false and leaves the cart as it was. On success
// the instance is reset to the one recorded with the stored cart.
func (c *Cart) Restore(ctx context.Context, id string) (bool, error) {
	stored, err := c.repo.FindByIDAndInstanceName(ctx, id, c.instanceName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.logger.Debug("cart restore miss", zap.String("id", id), zap.String("instance", c.instanceName))
			return false, nil
		}
		return false, err
	}

	r, err := decode(stored.Content)
	if err != nil {
		return false, errors.Wrapf(err, "restore cart %s", id)
	}
	c.items = r.items
	c.order = r.order
	c.coupons = r.coupons
	c.storeInfo = r.storeInfo
	c.deliveryInfo = r.deliveryInfo
	c.feesAmountList = r.feesAmountList
	c.params = r.params
	c.tips = r.tips
	c.SetInstance(stored.Instance)
	return true, nil
}

// Destroy deletes the stored cart for id and the current instance. The
// in-memory state is left alone.
func (c *Cart) Destroy(ctx context.Context, id string) error {
	return c.repo.Remove(ctx, id, c.instanceName)
}

// SetCartExpireTime asks the store to expire the cart after ttl, or after
// DefaultCartTTL when ttl is not positive.
func (c *Cart) SetCartExpireTime(ctx context.Context, id string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return c.repo.SetExpireTime(ctx, id, c.instanceName, ttl)
}

// RenameCart moves the stored cart for the current instance from oldID to
// newID, e.g. when a guest signs in.
func (c *Cart) RenameCart(ctx context.Context, oldID, newID string) error {
	return c.repo.RenameCart(ctx, oldID, newID, c.instanceName)
}

// GetOrders drains the order queue at key. Stores without order queues
// return nothing.
func (c *Cart) GetOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error) {
	q, ok := c.repo.(orderQueue)
	if !ok {
		return nil, nil
	}
	return q.GetOrders(ctx, key, ordersTTL(ttl))
}

// GetAndKeepOrders reads the order queue at key without draining it.
func (c *Cart) GetAndKeepOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error) {
	q, ok := c.repo.(orderQueue)
	if !ok {
		return nil, nil
	}
	return q.GetAndKeepOrders(ctx, key, ordersTTL(ttl))
}

// DeleteOrders drops the first n orders at key, one when n is not positive.
func (c *Cart) DeleteOrders(ctx context.Context, key string, n int, ttl time.Duration) error {
	q, ok := c.repo.(orderQueue)
	if !ok {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	return q.DeleteOrders(ctx, key, n, ordersTTL(ttl))
}

func ordersTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultOrdersTTL
	}
	return ttl
}
