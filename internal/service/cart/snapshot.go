package cart

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"shoppingcart/internal/domain"
)

const snapshotVersion = 1

// snapshot is the stored form of a cart. Coupons carry their variant in
// "type" so FixedDiscount and PercentDiscount come back as themselves;
// metadata and option values carry their kind for the same reason.
type snapshot struct {
	Version        int                 `json:"version"`
	Items          []itemDoc           `json:"items"`
	Coupons        []couponDoc         `json:"coupons"`
	StoreInfo      map[string]valueDoc `json:"storeInfo"`
	DeliveryInfo   map[string]valueDoc `json:"deliveryInfo"`
	FeesAmountList map[string]valueDoc `json:"feesAmountList"`
	Params         map[string]valueDoc `json:"params"`
	Tips           decimal.Decimal     `json:"tips"`
}

type itemDoc struct {
	UniqueID string              `json:"uniqueId"`
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Price    decimal.Decimal     `json:"price"`
	Quantity int                 `json:"quantity"`
	Tax      decimal.Decimal     `json:"tax"`
	Total    decimal.Decimal     `json:"total"`
	Options  map[string]valueDoc `json:"options,omitempty"`
}

type couponDoc struct {
	Type    domain.CouponKind `json:"type"`
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Range   domain.Range      `json:"range"`
	Amount  *decimal.Decimal  `json:"amount,omitempty"`
	Percent *decimal.Decimal  `json:"percent,omitempty"`
}

// restored is a decoded snapshot ready to be swapped into a Cart.
type restored struct {
	items          map[string]domain.LineItem
	order          []string
	coupons        []domain.Coupon
	storeInfo      map[string]any
	deliveryInfo   map[string]any
	feesAmountList map[string]any
	params         map[string]any
	tips           decimal.Decimal
}

func (c *Cart) encode() ([]byte, error) {
	snap := snapshot{
		Version: snapshotVersion,
		Items:   make([]itemDoc, 0, len(c.order)),
		Coupons: make([]couponDoc, 0, len(c.coupons)),
		Tips:    c.tips,
	}
	for _, field := range []struct {
		name string
		src  map[string]any
		dst  *map[string]valueDoc
	}{
		{"storeInfo", c.storeInfo, &snap.StoreInfo},
		{"deliveryInfo", c.deliveryInfo, &snap.DeliveryInfo},
		{"feesAmountList", c.feesAmountList, &snap.FeesAmountList},
		{"params", c.params, &snap.Params},
	} {
		docs, err := encodeValues(field.src)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s", field.name)
		}
		*field.dst = docs
	}
	for _, item := range c.Content() {
		options, err := encodeValues(item.Options())
		if err != nil {
			return nil, errors.Wrapf(err, "encode options of %s", item.UniqueID())
		}
		snap.Items = append(snap.Items, itemDoc{
			UniqueID: item.UniqueID(),
			ID:       item.ID(),
			Name:     item.Name(),
			Price:    item.Price(),
			Quantity: item.Quantity(),
			Tax:      item.Tax(),
			Total:    item.ItemWithOptionTotal(),
			Options:  options,
		})
	}
	for _, coupon := range c.coupons {
		doc, err := encodeCoupon(coupon)
		if err != nil {
			return nil, err
		}
		snap.Coupons = append(snap.Coupons, doc)
	}
	return json.Marshal(snap)
}

func encodeCoupon(coupon domain.Coupon) (couponDoc, error) {
	info := coupon.Info()
	doc := couponDoc{Type: coupon.Kind(), ID: info.ID, Name: info.Name, Range: info.Range}
	switch v := coupon.(type) {
	case domain.FixedDiscount:
		doc.Amount = &v.Amount
	case domain.PercentDiscount:
		doc.Percent = &v.Percent
	default:
		return couponDoc{}, errors.Errorf("encode coupon %q: unsupported type %T", info.Name, coupon)
	}
	return doc, nil
}

func decode(content []byte) (*restored, error) {
	var snap snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return nil, errors.Wrap(err, "decode cart snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Errorf("decode cart snapshot: unsupported version %d", snap.Version)
	}

	out := &restored{
		items:   make(map[string]domain.LineItem, len(snap.Items)),
		coupons: make([]domain.Coupon, 0, len(snap.Coupons)),
		tips:    snap.Tips,
	}
	for _, field := range []struct {
		name string
		src  map[string]valueDoc
		dst  *map[string]any
	}{
		{"storeInfo", snap.StoreInfo, &out.storeInfo},
		{"deliveryInfo", snap.DeliveryInfo, &out.deliveryInfo},
		{"feesAmountList", snap.FeesAmountList, &out.feesAmountList},
		{"params", snap.Params, &out.params},
	} {
		values, err := decodeValues(field.src)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", field.name)
		}
		*field.dst = values
	}
	for _, doc := range snap.Items {
		options, err := decodeValues(doc.Options)
		if err != nil {
			return nil, errors.Wrapf(err, "decode options of %s", doc.UniqueID)
		}
		// The stored identity wins over a recomputed one: option values
		// restored from plain JSON may marshal differently than they did
		// when the line was added.
		item, err := domain.RestoreLineItem(doc.UniqueID, domain.LineItemInput{
			ID:       doc.ID,
			Name:     doc.Name,
			Price:    doc.Price,
			Quantity: doc.Quantity,
			Tax:      doc.Tax,
			Total:    doc.Total,
			Options:  options,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "decode line %s", doc.UniqueID)
		}
		key := item.UniqueID()
		if _, dup := out.items[key]; !dup {
			out.order = append(out.order, key)
		}
		out.items[key] = item
	}
	for _, doc := range snap.Coupons {
		coupon, err := decodeCoupon(doc)
		if err != nil {
			return nil, err
		}
		out.coupons = append(out.coupons, coupon)
	}
	return out, nil
}

func decodeCoupon(doc couponDoc) (domain.Coupon, error) {
	switch doc.Type {
	case domain.CouponFixed:
		if doc.Amount == nil {
			return nil, errors.Errorf("decode coupon %q: fixed coupon without amount", doc.Name)
		}
		return domain.NewFixedDiscount(doc.ID, doc.Name, *doc.Amount, doc.Range), nil
	case domain.CouponPercent:
		if doc.Percent == nil {
			return nil, errors.Errorf("decode coupon %q: percent coupon without percent", doc.Name)
		}
		return domain.NewPercentDiscount(doc.ID, doc.Name, *doc.Percent, doc.Range), nil
	default:
		return nil, errors.Errorf("decode coupon %q: unknown type %q", doc.Name, doc.Type)
	}
}
