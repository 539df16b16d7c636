package cart

import (
	"context"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"shoppingcart/internal/domain"
)

const (
	// DefaultInstanceName is used when no instance is selected.
	DefaultInstanceName = "default"
	instancePrefix      = "shopping-cart."
)

// Cart is a session-scoped shopping cart. It is not safe for concurrent use;
// one session owns it. Pricing is recomputed from current state on every
// call. Only the persistence methods touch the backing store.
type Cart struct {
	repo   cartRepo
	logger *zap.Logger

	instanceName   string
	items          map[string]domain.LineItem
	order          []string
	coupons        []domain.Coupon
	storeInfo      map[string]any
	deliveryInfo   map[string]any
	params         map[string]any
	feesAmountList map[string]any
	tips           decimal.Decimal
}

type cartRepo interface {
	CreateOrUpdate(ctx context.Context, id, instance string, content []byte) error
	FindByIDAndInstanceName(ctx context.Context, id, instance string) (*domain.StoredCart, error)
	Remove(ctx context.Context, id, instance string) error
	SetExpireTime(ctx context.Context, id, instance string, ttl time.Duration) error
	RenameCart(ctx context.Context, oldID, newID, instance string) error
}

// New returns an empty cart on the default instance.
func New(repo cartRepo, logger *zap.Logger) *Cart {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{repo: repo, logger: logger}
	c.SetInstance(DefaultInstanceName)
	c.Clear()
	return c
}

// SetInstance selects the cart instance, e.g. "wishlist". An empty name
// selects the default instance; a "shopping-cart." prefix is accepted.
func (c *Cart) SetInstance(name string) *Cart {
	if name == "" {
		name = DefaultInstanceName
	}
	name = strings.ReplaceAll(name, instancePrefix, "")
	c.instanceName = instancePrefix + name
	return c
}

// CurrentInstance returns the namespaced instance name.
func (c *Cart) CurrentInstance() string {
	return c.instanceName
}

// Add puts a line into the cart. Adding a product with the same options as an
// existing line accumulates quantity, total and tax into that line.
func (c *Cart) Add(in domain.LineItemInput) (domain.LineItem, error) {
	item, err := domain.NewLineItem(in)
	if err != nil {
		return domain.LineItem{}, err
	}
	key := item.UniqueID()
	if prev, ok := c.items[key]; ok {
		item = item.Merge(prev)
	} else {
		c.order = append(c.order, key)
	}
	c.items[key] = item
	return item, nil
}

// Remove drops the line with the given unique id and reports whether it
// existed.
func (c *Cart) Remove(uniqueID string) bool {
	if _, ok := c.items[uniqueID]; !ok {
		return false
	}
	delete(c.items, uniqueID)
	c.order = slices.DeleteFunc(c.order, func(k string) bool { return k == uniqueID })
	return true
}

func (c *Cart) Has(uniqueID string) bool {
	_, ok := c.items[uniqueID]
	return ok
}

func (c *Cart) Get(uniqueID string) (domain.LineItem, bool) {
	item, ok := c.items[uniqueID]
	return item, ok
}

// Content returns the lines in the order they were first added.
func (c *Cart) Content() []domain.LineItem {
	out := make([]domain.LineItem, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.items[key])
	}
	return out
}

// Count is the number of distinct lines.
func (c *Cart) Count() int {
	return len(c.items)
}

// SetQuantity replaces the quantity of an existing line without touching its
// total or tax. It returns false when the line is unknown or the quantity is
// negative.
func (c *Cart) SetQuantity(uniqueID string, quantity int) bool {
	item, ok := c.items[uniqueID]
	if !ok || quantity < 0 {
		return false
	}
	c.items[uniqueID] = item.WithQuantity(quantity)
	return true
}

// Clear empties lines, coupons, metadata, fees and tips. The instance is kept.
func (c *Cart) Clear() {
	c.items = map[string]domain.LineItem{}
	c.order = nil
	c.coupons = nil
	c.storeInfo = map[string]any{}
	c.deliveryInfo = map[string]any{}
	c.params = map[string]any{}
	c.feesAmountList = map[string]any{}
	c.tips = decimal.Zero
}

func (c *Cart) StoreInfo() map[string]any { return maps.Clone(c.storeInfo) }

func (c *Cart) SetStoreInfo(info map[string]any) { c.storeInfo = cloneOrEmpty(info) }

func (c *Cart) DeliveryInfo() map[string]any { return maps.Clone(c.deliveryInfo) }

func (c *Cart) SetDeliveryInfo(info map[string]any) { c.deliveryInfo = cloneOrEmpty(info) }

func (c *Cart) Params() map[string]any { return maps.Clone(c.params) }

func (c *Cart) SetParams(params map[string]any) { c.params = cloneOrEmpty(params) }

// FeesAmountList returns fee amounts by category.
func (c *Cart) FeesAmountList() map[string]any { return maps.Clone(c.feesAmountList) }

// SetFeesAmountList replaces the fee list. Values that are not numeric are
// kept but ignored by pricing.
func (c *Cart) SetFeesAmountList(fees map[string]any) { c.feesAmountList = cloneOrEmpty(fees) }

func (c *Cart) Tips() decimal.Decimal { return c.tips }

func (c *Cart) SetTips(tips decimal.Decimal) { c.tips = tips }

func cloneOrEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}
