package cart

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"shoppingcart/internal/domain"
)

type stubRepo struct {
	stored map[string]domain.StoredCart

	createErr error
	findErr   error
	removeErr error

	lastExpireID       string
	lastExpireInstance string
	lastExpireTTL      time.Duration
	lastRenameOld      string
	lastRenameNew      string
	lastRenameInstance string
	renameErr          error
	creates            int
}

func stubKey(id, instance string) string { return id + "|" + instance }

func (s *stubRepo) CreateOrUpdate(_ context.Context, id, instance string, content []byte) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.stored == nil {
		s.stored = map[string]domain.StoredCart{}
	}
	s.creates++
	s.stored[stubKey(id, instance)] = domain.StoredCart{ID: id, Instance: instance, Content: content}
	return nil
}

func (s *stubRepo) FindByIDAndInstanceName(_ context.Context, id, instance string) (*domain.StoredCart, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	stored, ok := s.stored[stubKey(id, instance)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &stored, nil
}

func (s *stubRepo) Remove(_ context.Context, id, instance string) error {
	if s.removeErr != nil {
		return s.removeErr
	}
	delete(s.stored, stubKey(id, instance))
	return nil
}

func (s *stubRepo) SetExpireTime(_ context.Context, id, instance string, ttl time.Duration) error {
	s.lastExpireID = id
	s.lastExpireInstance = instance
	s.lastExpireTTL = ttl
	return nil
}

func (s *stubRepo) RenameCart(_ context.Context, oldID, newID, instance string) error {
	s.lastRenameOld = oldID
	s.lastRenameNew = newID
	s.lastRenameInstance = instance
	return s.renameErr
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func widget(qty int, total, tax string) domain.LineItemInput {
	return domain.LineItemInput{
		ID:       "1",
		Name:     "Widget",
		Price:    dec("10"),
		Quantity: qty,
		Tax:      dec(tax),
		Total:    dec(total),
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(&stubRepo{}, nil)
	if c.CurrentInstance() != "shopping-cart.default" {
		t.Fatalf("unexpected instance %s", c.CurrentInstance())
	}
	if c.Count() != 0 || len(c.Coupons()) != 0 || !c.Tips().IsZero() {
		t.Fatalf("expected empty cart")
	}
	if c.StoreInfo() == nil || c.FeesAmountList() == nil {
		t.Fatalf("expected empty, non-nil metadata maps")
	}
}

func TestSetInstance(t *testing.T) {
	c := New(&stubRepo{}, nil)
	cases := map[string]string{
		"wishlist":                "shopping-cart.wishlist",
		"shopping-cart.wishlist":  "shopping-cart.wishlist",
		"":                        "shopping-cart.default",
		"shopping-cart.":          "shopping-cart.",
		"shopping-cart.saved-for": "shopping-cart.saved-for",
	}
	for in, want := range cases {
		if got := c.SetInstance(in).CurrentInstance(); got != want {
			t.Fatalf("SetInstance(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestAdd_MergesIdenticalLines(t *testing.T) {
	c := New(&stubRepo{}, nil)

	first, err := c.Add(widget(3, "30", "3"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	second, err := c.Add(widget(2, "20", "2"))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if first.UniqueID() != second.UniqueID() {
		t.Fatalf("expected same identity")
	}
	if c.Count() != 1 {
		t.Fatalf("expected 1 line, got %d", c.Count())
	}
	got, ok := c.Get(first.UniqueID())
	if !ok {
		t.Fatalf("expected line to be stored")
	}
	if got.Quantity() != 5 || !got.ItemWithOptionTotal().Equal(dec("50")) || !got.Tax().Equal(dec("5")) {
		t.Fatalf("unexpected merged line qty=%d total=%s tax=%s", got.Quantity(), got.ItemWithOptionTotal(), got.Tax())
	}
	if second.Quantity() != 5 {
		t.Fatalf("expected Add to return the merged line, got qty %d", second.Quantity())
	}
}

func TestAdd_MergeIgnoresOptionOrder(t *testing.T) {
	c := New(&stubRepo{}, nil)

	a := widget(1, "10", "0")
	a.Options = map[string]any{"color": "red", "size": "L"}
	b := widget(1, "10", "0")
	b.Options = map[string]any{"size": "L", "color": "red"}
	other := widget(1, "12", "0")
	other.Options = map[string]any{"size": "XL", "color": "red"}

	if _, err := c.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Add(b); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := c.Add(other); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Count() != 2 {
		t.Fatalf("expected 2 lines, got %d", c.Count())
	}
	content := c.Content()
	if content[0].Quantity() != 2 || content[1].Quantity() != 1 {
		t.Fatalf("unexpected content order or quantities: %d, %d", content[0].Quantity(), content[1].Quantity())
	}
}

func TestAdd_InvalidInputLeavesCartUnchanged(t *testing.T) {
	c := New(&stubRepo{}, nil)
	in := widget(1, "10", "1")
	in.Name = ""
	if _, err := c.Add(in); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("expected no lines, got %d", c.Count())
	}
}

func TestRemoveHasGet(t *testing.T) {
	c := New(&stubRepo{}, nil)
	item, _ := c.Add(widget(1, "10", "1"))

	if !c.Has(item.UniqueID()) {
		t.Fatalf("expected Has to be true")
	}
	if _, ok := c.Get("nope"); ok {
		t.Fatalf("expected unknown id to be absent")
	}
	if c.Remove("nope") {
		t.Fatalf("expected Remove of unknown id to be false")
	}
	if !c.Remove(item.UniqueID()) {
		t.Fatalf("expected Remove to be true")
	}
	if c.Has(item.UniqueID()) || c.Count() != 0 || len(c.Content()) != 0 {
		t.Fatalf("expected line to be gone")
	}
}

func TestSetQuantity(t *testing.T) {
	c := New(&stubRepo{}, nil)
	item, _ := c.Add(widget(2, "20", "1"))

	if c.SetQuantity("nope", 3) {
		t.Fatalf("expected unknown id to return false")
	}
	if c.SetQuantity(item.UniqueID(), -1) {
		t.Fatalf("expected negative quantity to be refused")
	}
	if !c.SetQuantity(item.UniqueID(), 7) {
		t.Fatalf("expected SetQuantity to succeed")
	}
	got, _ := c.Get(item.UniqueID())
	if got.Quantity() != 7 {
		t.Fatalf("expected quantity 7, got %d", got.Quantity())
	}
	if !got.ItemWithOptionTotal().Equal(dec("20")) || !got.Tax().Equal(dec("1")) {
		t.Fatalf("expected total and tax untouched, got total=%s tax=%s", got.ItemWithOptionTotal(), got.Tax())
	}
}

func TestClear(t *testing.T) {
	c := New(&stubRepo{}, nil)
	c.SetInstance("wishlist")
	_, _ = c.Add(widget(1, "10", "1"))
	c.AddCoupon(domain.NewFixedDiscount("c1", "FIVE", dec("5"), domain.AllFees()))
	c.SetStoreInfo(map[string]any{"name": "Main St"})
	c.SetDeliveryInfo(map[string]any{"zip": "10001"})
	c.SetParams(map[string]any{"source": "app"})
	c.SetFeesAmountList(map[string]any{"delivery": 5.0})
	c.SetTips(dec("2"))

	c.Clear()

	if c.Count() != 0 || len(c.Coupons()) != 0 || len(c.StoreInfo()) != 0 || len(c.DeliveryInfo()) != 0 ||
		len(c.Params()) != 0 || len(c.FeesAmountList()) != 0 || !c.Tips().IsZero() {
		t.Fatalf("expected everything cleared")
	}
	if c.CurrentInstance() != "shopping-cart.wishlist" {
		t.Fatalf("expected instance kept, got %s", c.CurrentInstance())
	}
}

func TestMetadataIsOwnedByCart(t *testing.T) {
	c := New(&stubRepo{}, nil)
	info := map[string]any{"name": "Main St"}
	c.SetStoreInfo(info)
	info["name"] = "changed"

	got := c.StoreInfo()
	got["name"] = "also changed"

	if c.StoreInfo()["name"] != "Main St" {
		t.Fatalf("expected cart to own its store info, got %v", c.StoreInfo())
	}
}

func TestCoupons_AddHasClear(t *testing.T) {
	c := New(&stubRepo{}, nil)
	fixed := domain.NewFixedDiscount("c1", "FIVE", dec("5"), domain.AllFees())
	percent := domain.NewPercentDiscount("c2", "TEN", dec("0.1"), domain.FeesIn("delivery"))

	c.AddCoupon(fixed)
	c.AddCoupon(fixed)
	c.AddCoupon(percent)
	if len(c.Coupons()) != 3 {
		t.Fatalf("expected duplicates to be kept, got %d coupons", len(c.Coupons()))
	}
	if !c.HasCoupon(domain.NewPercentDiscount("c2", "TEN", dec("0.10"), domain.FeesIn("delivery"))) {
		t.Fatalf("expected equal coupon to be found")
	}
	if c.HasCoupon(domain.NewPercentDiscount("c2", "TEN", dec("0.2"), domain.FeesIn("delivery"))) {
		t.Fatalf("expected different percent not to be found")
	}

	_, _ = c.Add(widget(1, "10", "0"))
	c.ClearCoupons()
	if len(c.Coupons()) != 0 || c.Count() != 1 {
		t.Fatalf("expected only coupons cleared")
	}
}

func TestAddCoupon_IgnoresNil(t *testing.T) {
	c := New(&stubRepo{}, nil)
	_, _ = c.Add(widget(1, "10", "0"))
	c.AddCoupon(nil)

	if len(c.Coupons()) != 0 {
		t.Fatalf("expected nil coupon to be ignored, got %d coupons", len(c.Coupons()))
	}
	if !c.CouponsAmount().IsZero() || !c.Amount().Equal(dec("10")) {
		t.Fatalf("unexpected amounts coupons=%s amount=%s", c.CouponsAmount(), c.Amount())
	}
	if err := c.Store(context.Background(), "user-1"); err != nil {
		t.Fatalf("Store: %v", err)
	}
}

// Removal must match on the argument's name, not on the first coupon.
func TestRemoveCoupon_MatchesArgumentName(t *testing.T) {
	c := New(&stubRepo{}, nil)
	first := domain.NewFixedDiscount("c1", "FIVE", dec("5"), domain.AllFees())
	second := domain.NewPercentDiscount("c2", "TEN", dec("0.1"), domain.AllFees())
	c.AddCoupon(first)
	c.AddCoupon(second)

	removed, ok := c.RemoveCoupon(domain.NewPercentDiscount("other-id", "TEN", dec("0.5"), domain.NoFees()))
	if !ok {
		t.Fatalf("expected coupon named TEN to be removed")
	}
	if removed.Info().ID != "c2" {
		t.Fatalf("expected c2 removed, got %s", removed.Info().ID)
	}
	left := c.Coupons()
	if len(left) != 1 || left[0].Info().Name != "FIVE" {
		t.Fatalf("expected FIVE to remain, got %+v", left)
	}

	if _, ok := c.RemoveCoupon(domain.NewFixedDiscount("x", "MISSING", dec("1"), domain.AllFees())); ok {
		t.Fatalf("expected unknown name not to be removed")
	}
	if _, ok := c.RemoveCoupon(nil); ok {
		t.Fatalf("expected nil coupon not to be removed")
	}
}

func TestRemoveCoupon_RemovesFirstMatchOnly(t *testing.T) {
	c := New(&stubRepo{}, nil)
	c.AddCoupon(domain.NewFixedDiscount("a", "DUP", dec("1"), domain.AllFees()))
	c.AddCoupon(domain.NewFixedDiscount("b", "DUP", dec("2"), domain.AllFees()))

	removed, ok := c.RemoveCoupon(domain.NewFixedDiscount("", "DUP", decimal.Zero, domain.NoFees()))
	if !ok || removed.Info().ID != "a" {
		t.Fatalf("expected first DUP removed, got %+v ok=%v", removed, ok)
	}
	if left := c.Coupons(); len(left) != 1 || left[0].Info().ID != "b" {
		t.Fatalf("expected second DUP to remain, got %+v", left)
	}
}
