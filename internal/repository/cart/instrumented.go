package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/prometheus/client_golang/prometheus"

	"shoppingcart/internal/domain"
)

const (
	outcomeOK    = "ok"
	outcomeMiss  = "miss"
	outcomeError = "error"
)

type storeMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newStoreMetrics(reg prometheus.Registerer) (*storeMetrics, error) {
	m := &storeMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopping_cart",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Cart store operations by backend, operation and outcome.",
		}, []string{"backend", "operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "shopping_cart",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Cart store operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
	}
	if reg == nil {
		return m, nil
	}

	if err := reg.Register(m.operations); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "register operations counter")
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, errors.Errorf("register operations counter: already registered as %T", are.ExistingCollector)
		}
		m.operations = existing
	}
	if err := reg.Register(m.duration); err != nil {
		are := prometheus.AlreadyRegisteredError{}
		if !errors.As(err, &are) {
			return nil, errors.Wrap(err, "register duration histogram")
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, errors.Errorf("register duration histogram: already registered as %T", are.ExistingCollector)
		}
		m.duration = existing
	}
	return m, nil
}

type instrumented struct {
	next    Repository
	backend string
	metrics *storeMetrics
}

type instrumentedQueue struct {
	*instrumented
	queue OrderQueue
}

// Instrumented wraps next so every call is counted and timed under the given
// backend label. When next is also an OrderQueue the result is one too.
func Instrumented(next Repository, backend string, reg prometheus.Registerer) (Repository, error) {
	m, err := newStoreMetrics(reg)
	if err != nil {
		return nil, err
	}
	base := &instrumented{next: next, backend: backend, metrics: m}
	if q, ok := next.(OrderQueue); ok {
		return &instrumentedQueue{instrumented: base, queue: q}, nil
	}
	return base, nil
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	outcome := outcomeOK
	switch {
	case errors.Is(err, domain.ErrNotFound):
		outcome = outcomeMiss
	case err != nil:
		outcome = outcomeError
	}
	s.metrics.operations.WithLabelValues(s.backend, op, outcome).Inc()
	s.metrics.duration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *instrumented) CreateOrUpdate(ctx context.Context, id, instance string, content []byte) (err error) {
	defer func(start time.Time) { s.observe("create_or_update", start, err) }(time.Now())
	return s.next.CreateOrUpdate(ctx, id, instance, content)
}

func (s *instrumented) FindByIDAndInstanceName(ctx context.Context, id, instance string) (_ *domain.StoredCart, err error) {
	defer func(start time.Time) { s.observe("find", start, err) }(time.Now())
	return s.next.FindByIDAndInstanceName(ctx, id, instance)
}

func (s *instrumented) Remove(ctx context.Context, id, instance string) (err error) {
	defer func(start time.Time) { s.observe("remove", start, err) }(time.Now())
	return s.next.Remove(ctx, id, instance)
}

func (s *instrumented) SetExpireTime(ctx context.Context, id, instance string, ttl time.Duration) (err error) {
	defer func(start time.Time) { s.observe("set_expire_time", start, err) }(time.Now())
	return s.next.SetExpireTime(ctx, id, instance, ttl)
}

func (s *instrumented) RenameCart(ctx context.Context, oldID, newID, instance string) (err error) {
	defer func(start time.Time) { s.observe("rename", start, err) }(time.Now())
	return s.next.RenameCart(ctx, oldID, newID, instance)
}

func (s *instrumentedQueue) GetOrders(ctx context.Context, key string, ttl time.Duration) (_ []map[string]any, err error) {
	defer func(start time.Time) { s.observe("get_orders", start, err) }(time.Now())
	return s.queue.GetOrders(ctx, key, ttl)
}

func (s *instrumentedQueue) GetAndKeepOrders(ctx context.Context, key string, ttl time.Duration) (_ []map[string]any, err error) {
	defer func(start time.Time) { s.observe("get_and_keep_orders", start, err) }(time.Now())
	return s.queue.GetAndKeepOrders(ctx, key, ttl)
}

func (s *instrumentedQueue) DeleteOrders(ctx context.Context, key string, n int, ttl time.Duration) (err error) {
	defer func(start time.Time) { s.observe("delete_orders", start, err) }(time.Now())
	return s.queue.DeleteOrders(ctx, key, n, ttl)
}
