package cart

import (
	"context"
	"time"

	"shoppingcart/internal/domain"
)

// DefaultTable is the table, key prefix or collection carts are stored under.
const DefaultTable = "shopping_cart"

// Repository persists serialized carts keyed by cart id and instance name.
//
// FindByIDAndInstanceName returns domain.ErrNotFound when nothing is stored.
// Remove is idempotent. SetExpireTime is best effort and may be a no-op.
// RenameCart is a no-op when the source is absent.
type Repository interface {
	CreateOrUpdate(ctx context.Context, id, instance string, content []byte) error
	FindByIDAndInstanceName(ctx context.Context, id, instance string) (*domain.StoredCart, error)
	Remove(ctx context.Context, id, instance string) error
	SetExpireTime(ctx context.Context, id, instance string, ttl time.Duration) error
	RenameCart(ctx context.Context, oldID, newID, instance string) error
}

// OrderQueue is implemented by backends that keep list-structured order
// queues next to carts.
type OrderQueue interface {
	GetOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error)
	GetAndKeepOrders(ctx context.Context, key string, ttl time.Duration) ([]map[string]any, error)
	DeleteOrders(ctx context.Context, key string, n int, ttl time.Duration) error
}
