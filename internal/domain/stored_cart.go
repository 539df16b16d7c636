package domain

// StoredCart is the persisted form of a cart: an opaque serialized blob keyed
// by cart id and instance name.
type StoredCart struct {
	ID       string
	Instance string
	Content  []byte
}
