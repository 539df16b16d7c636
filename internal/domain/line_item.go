package domain

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"maps"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// LineItemInput carries the caller-supplied values for one cart line.
// Price, Tax and Total are the marginal amounts for Quantity units; Total
// already includes any option surcharge.
type LineItemInput struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Options  map[string]any
}

// LineItem is one product line in a cart. Items with the same product id and
// the same option set share a UniqueID regardless of option insertion order.
type LineItem struct {
	uniqueID string
	id       string
	name     string
	price    decimal.Decimal
	quantity int
	tax      decimal.Decimal
	total    decimal.Decimal
	options  map[string]any
}

// NewLineItem validates the input and derives the item's unique identity.
func NewLineItem(in LineItemInput) (LineItem, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item id required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item name required")
	}
	if in.Price.IsNegative() {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item price must not be negative")
	}
	if in.Quantity < 0 {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item quantity must not be negative")
	}
	if in.Tax.IsNegative() {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item tax must not be negative")
	}
	if in.Total.IsNegative() {
		return LineItem{}, errors.Wrap(ErrInvalidInput, "line item total must not be negative")
	}

	options := maps.Clone(in.Options)
	if options == nil {
		options = map[string]any{}
	}
	uniqueID, err := uniqueIdentity(id, options)
	if err != nil {
		return LineItem{}, err
	}

	return LineItem{
		uniqueID: uniqueID,
		id:       id,
		name:     in.Name,
		price:    in.Price,
		quantity: in.Quantity,
		tax:      in.Tax,
		total:    in.Total,
		options:  options,
	}, nil
}

// RestoreLineItem rebuilds a stored line under the identity it was saved
// with. The options may no longer hash to that identity once they have been
// through storage, so an empty uniqueID is the only case that is recomputed.
func RestoreLineItem(uniqueID string, in LineItemInput) (LineItem, error) {
	item, err := NewLineItem(in)
	if err != nil {
		return LineItem{}, err
	}
	if uniqueID == "" || uniqueID == item.uniqueID {
		return item, nil
	}
	sum, ok := strings.CutPrefix(uniqueID, item.id+"-")
	if !ok || len(sum) != md5.Size*2 {
		return LineItem{}, errors.Wrapf(ErrInvalidInput, "line item identity %q does not belong to %q", uniqueID, item.id)
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return LineItem{}, errors.Wrapf(ErrInvalidInput, "line item identity %q is not a hash", uniqueID)
	}
	item.uniqueID = uniqueID
	return item, nil
}

// uniqueIdentity hashes the id with the canonical JSON form of the options.
// encoding/json writes map keys in sorted order at every depth.
func uniqueIdentity(id string, options map[string]any) (string, error) {
	canonical, err := json.Marshal(options)
	if err != nil {
		return "", errors.Wrap(ErrInvalidInput, "line item options must be JSON encodable")
	}
	sum := md5.Sum(append([]byte(id), canonical...))
	return id + "-" + hex.EncodeToString(sum[:]), nil
}

func (li LineItem) UniqueID() string { return li.uniqueID }

func (li LineItem) ID() string { return li.id }

func (li LineItem) Name() string { return li.name }

func (li LineItem) Price() decimal.Decimal { return li.price }

func (li LineItem) Quantity() int { return li.quantity }

// Options returns a copy of the item's option set.
func (li LineItem) Options() map[string]any { return maps.Clone(li.options) }

// Total is price * quantity, ignoring tax and option surcharges.
func (li LineItem) Total() decimal.Decimal {
	return li.price.Mul(decimal.NewFromInt(int64(li.quantity)))
}

// Tax is the absolute tax for the line, not per unit.
func (li LineItem) Tax() decimal.Decimal { return li.tax }

// ItemWithOptionTotal is the precomputed line total including options.
func (li LineItem) ItemWithOptionTotal() decimal.Decimal { return li.total }

// Merge folds a previously stored line with the same identity into li.
// Quantity, total and tax accumulate; price, name and options come from li.
func (li LineItem) Merge(prev LineItem) LineItem {
	li.quantity += prev.quantity
	li.total = li.total.Add(prev.total)
	li.tax = li.tax.Add(prev.tax)
	return li
}

// WithQuantity returns a copy with the quantity replaced. Total and tax are
// left as they are.
func (li LineItem) WithQuantity(quantity int) LineItem {
	li.quantity = quantity
	return li
}
