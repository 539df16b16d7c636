package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// CouponKind tags the coupon variant so it survives serialization.
type CouponKind string

const (
	CouponFixed   CouponKind = "fixed"
	CouponPercent CouponKind = "percent"
)

// Range selects which fee categories a coupon's discount base includes.
type Range struct {
	All  bool     `json:"all,omitempty"`
	Keys []string `json:"keys,omitempty"`
}

// AllFees covers every fee category.
func AllFees() Range { return Range{All: true} }

// NoFees covers no fee category.
func NoFees() Range { return Range{} }

// FeesIn covers only the named fee categories.
func FeesIn(keys ...string) Range { return Range{Keys: slices.Clone(keys)} }

// Includes reports whether the fee category belongs to the range.
func (r Range) Includes(key string) bool {
	return r.All || slices.Contains(r.Keys, key)
}

func (r Range) equal(o Range) bool {
	return r.All == o.All && slices.Equal(r.Keys, o.Keys)
}

// CouponInfo holds the attributes shared by every coupon variant.
type CouponInfo struct {
	ID    string
	Name  string
	Range Range
}

// Coupon is a named discount rule. Apply is pure: it returns the discount for
// the given base total and has no side effects.
type Coupon interface {
	Info() CouponInfo
	Kind() CouponKind
	Apply(total decimal.Decimal) decimal.Decimal
}

// FixedDiscount takes a flat amount off regardless of the base total.
type FixedDiscount struct {
	CouponInfo
	Amount decimal.Decimal
}

func NewFixedDiscount(id, name string, amount decimal.Decimal, r Range) FixedDiscount {
	return FixedDiscount{CouponInfo: CouponInfo{ID: id, Name: name, Range: r}, Amount: amount}
}

func (c FixedDiscount) Info() CouponInfo { return c.CouponInfo }

func (c FixedDiscount) Kind() CouponKind { return CouponFixed }

func (c FixedDiscount) Apply(decimal.Decimal) decimal.Decimal { return c.Amount }

// PercentDiscount takes a fraction of the base total, e.g. 0.1 for ten percent.
type PercentDiscount struct {
	CouponInfo
	Percent decimal.Decimal
}

func NewPercentDiscount(id, name string, percent decimal.Decimal, r Range) PercentDiscount {
	return PercentDiscount{CouponInfo: CouponInfo{ID: id, Name: name, Range: r}, Percent: percent}
}

func (c PercentDiscount) Info() CouponInfo { return c.CouponInfo }

func (c PercentDiscount) Kind() CouponKind { return CouponPercent }

func (c PercentDiscount) Apply(total decimal.Decimal) decimal.Decimal { return total.Mul(c.Percent) }

// SameCoupon reports whether two coupons are the same variant with equal
// parameters.
func SameCoupon(a, b Coupon) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ai, bi := a.Info(), b.Info()
	if ai.ID != bi.ID || ai.Name != bi.Name || !ai.Range.equal(bi.Range) {
		return false
	}
	switch av := a.(type) {
	case FixedDiscount:
		bv, ok := b.(FixedDiscount)
		return ok && av.Amount.Equal(bv.Amount)
	case PercentDiscount:
		bv, ok := b.(PercentDiscount)
		return ok && av.Percent.Equal(bv.Percent)
	default:
		return false
	}
}
