package cart

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/shopspring/decimal"
)

// Subtotal is the sum of line totals including option surcharges.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.ItemWithOptionTotal())
	}
	return sum
}

// TotalTax is the sum of line taxes.
func (c *Cart) TotalTax() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.Tax())
	}
	return sum
}

func (c *Cart) SubtotalWithTax() decimal.Decimal {
	return c.Subtotal().Add(c.TotalTax())
}

// CouponsAmount sums every coupon's discount. Each coupon is applied to its
// own base: subtotal with tax plus the fees its range covers. Coupons do not
// see each other's discount.
func (c *Cart) CouponsAmount() decimal.Decimal {
	subtotalWithTax := c.SubtotalWithTax()
	sum := decimal.Zero
	for _, coupon := range c.coupons {
		r := coupon.Info().Range
		base := subtotalWithTax
		for key, value := range c.feesAmountList {
			if !r.Includes(key) {
				continue
			}
			if amount, ok := numeric(value); ok {
				base = base.Add(amount)
			}
		}
		sum = sum.Add(coupon.Apply(base))
	}
	return sum
}

// FeesAmount sums the numeric fee amounts; other entries are skipped.
func (c *Cart) FeesAmount() decimal.Decimal {
	sum := decimal.Zero
	for _, value := range c.feesAmountList {
		if amount, ok := numeric(value); ok {
			sum = sum.Add(amount)
		}
	}
	return sum
}

// Amount is the grand total, floored at zero.
func (c *Cart) Amount() decimal.Decimal {
	total := c.SubtotalWithTax().
		Add(c.FeesAmount()).
		Add(c.tips).
		Sub(c.CouponsAmount())
	return decimal.Max(decimal.Zero, total)
}

func numeric(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}

	// Kinds rather than types, so every integer width and named numeric
	// types are counted.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), true
	case reflect.Float32:
		f := rv.Float()
		if !finite(f) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(float32(f)), true
	case reflect.Float64:
		f := rv.Float()
		if !finite(f) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(f), true
	case reflect.String:
		d, err := decimal.NewFromString(strings.TrimSpace(rv.String()))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
