package seed

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"shoppingcart/internal/domain"
	"shoppingcart/internal/service/cart"
)

// DemoCartID is the id the demo carts are stored under.
const DemoCartID = "demo-user"

type lineSeed struct {
	ID       string
	Name     string
	Price    string
	Quantity int
	Tax      string
	Options  map[string]any
}

// Apply stores a demo cart and a demo wishlist for manual testing. Running it
// again overwrites both.
func Apply(ctx context.Context, factory *cart.Factory) error {
	c := factory.New(cart.DefaultInstanceName)
	lines := []lineSeed{
		{ID: "demo-shirt", Name: "Demo T-Shirt", Price: "19.99", Quantity: 2, Tax: "3.20", Options: map[string]any{"size": "M", "color": "navy"}},
		{ID: "demo-mug", Name: "Demo Mug", Price: "12.99", Quantity: 1, Tax: "1.04"},
	}
	if err := addLines(c, lines); err != nil {
		return err
	}
	c.AddCoupon(domain.NewPercentDiscount("demo-10", "WELCOME10", decimal.RequireFromString("0.1"), domain.FeesIn("delivery")))
	c.SetFeesAmountList(map[string]any{"delivery": "4.99", "service": "1.00"})
	c.SetTips(decimal.RequireFromString("2"))
	c.SetStoreInfo(map[string]any{"id": "store-1", "name": "Demo Store"})
	c.SetDeliveryInfo(map[string]any{"type": "delivery", "zip": "10001"})
	if err := c.Store(ctx, DemoCartID); err != nil {
		return errors.Wrap(err, "store demo cart")
	}

	wishlist := factory.New("wishlist")
	if err := addLines(wishlist, []lineSeed{
		{ID: "demo-hoodie", Name: "Demo Hoodie", Price: "49.00", Quantity: 1, Tax: "3.92", Options: map[string]any{"size": "L"}},
	}); err != nil {
		return err
	}
	if err := wishlist.Store(ctx, DemoCartID); err != nil {
		return errors.Wrap(err, "store demo wishlist")
	}
	return nil
}

func addLines(c *cart.Cart, lines []lineSeed) error {
	for _, l := range lines {
		price := decimal.RequireFromString(l.Price)
		_, err := c.Add(domain.LineItemInput{
			ID:       l.ID,
			Name:     l.Name,
			Price:    price,
			Quantity: l.Quantity,
			Tax:      decimal.RequireFromString(l.Tax),
			Total:    price.Mul(decimal.NewFromInt(int64(l.Quantity))),
			Options:  l.Options,
		})
		if err != nil {
			return errors.Wrapf(err, "add %s", l.ID)
		}
	}
	return nil
}
