package cart

import (
	"context"

	"go.uber.org/zap"
)

// Factory hands out carts bound to one store. Whatever owns a session keeps a
// Factory and opens its cart explicitly.
type Factory struct {
	repo   cartRepo
	logger *zap.Logger
}

func NewFactory(repo cartRepo, logger *zap.Logger) *Factory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Factory{repo: repo, logger: logger}
}

// New returns an empty cart on the given instance.
func (f *Factory) New(instance string) *Cart {
	return New(f.repo, f.logger).SetInstance(instance)
}

// Open returns the cart stored under id and instance, or an empty cart on
// that instance when nothing is stored.
func (f *Factory) Open(ctx context.Context, id, instance string) (*Cart, error) {
	c := f.New(instance)
	if _, err := c.Restore(ctx, id); err != nil {
		return nil, err
	}
	return c, nil
}
