package cart

import (
	"slices"

	"shoppingcart/internal/domain"
)

// AddCoupon appends a coupon. The same coupon may be attached more than once;
// a nil coupon is ignored.
func (c *Cart) AddCoupon(coupon domain.Coupon) {
	if coupon == nil {
		return
	}
	c.coupons = append(c.coupons, coupon)
}

// RemoveCoupon removes the first attached coupon whose name matches the
// argument's name and returns it.
func (c *Cart) RemoveCoupon(coupon domain.Coupon) (domain.Coupon, bool) {
	if coupon == nil {
		return nil, false
	}
	name := coupon.Info().Name
	idx := slices.IndexFunc(c.coupons, func(attached domain.Coupon) bool {
		return attached.Info().Name == name
	})
	if idx < 0 {
		return nil, false
	}
	removed := c.coupons[idx]
	c.coupons = slices.Delete(c.coupons, idx, idx+1)
	return removed, true
}

// HasCoupon reports whether an equal coupon (same variant and parameters) is
// attached.
func (c *Cart) HasCoupon(coupon domain.Coupon) bool {
	return slices.ContainsFunc(c.coupons, func(attached domain.Coupon) bool {
		return domain.SameCoupon(attached, coupon)
	})
}

// Coupons returns the attached coupons in order.
func (c *Cart) Coupons() []domain.Coupon {
	return slices.Clone(c.coupons)
}

// ClearCoupons detaches every coupon and leaves everything else alone.
func (c *Cart) ClearCoupons() {
	c.coupons = nil
}
