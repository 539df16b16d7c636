package cart

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Value kinds carried in a snapshot so metadata and options come back with
// their Go types. Anything else is stored as plain JSON and restored the way
// encoding/json decodes it, with numbers as json.Number.
const (
	kindNull    = "null"
	kindString  = "string"
	kindBool    = "bool"
	kindInt     = "int"
	kindInt8    = "int8"
	kindInt16   = "int16"
	kindInt32   = "int32"
	kindInt64   = "int64"
	kindUint    = "uint"
	kindUint8   = "uint8"
	kindUint16  = "uint16"
	kindUint32  = "uint32"
	kindUint64  = "uint64"
	kindFloat32 = "float32"
	kindFloat64 = "float64"
	kindDecimal = "decimal"
	kindNumber  = "number"
	kindMap     = "map"
	kindList    = "list"
	kindStrings = "strings"
	kindJSON    = "json"
)

type valueDoc struct {
	Kind  string          `json:"k"`
	Value json.RawMessage `json:"v,omitempty"`
}

func encodeValues(m map[string]any) (map[string]valueDoc, error) {
	out := make(map[string]valueDoc, len(m))
	for key, v := range m {
		doc, err := encodeValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		out[key] = doc
	}
	return out, nil
}

func decodeValues(m map[string]valueDoc) (map[string]any, error) {
	out := make(map[string]any, len(m))
	for key, doc := range m {
		v, err := decodeValue(doc)
		if err != nil {
			return nil, errors.Wrapf(err, "key %q", key)
		}
		out[key] = v
	}
	return out, nil
}

func encodeValue(v any) (valueDoc, error) {
	var (
		kind string
		raw  any
	)
	switch n := v.(type) {
	case nil:
		return valueDoc{Kind: kindNull}, nil
	case string:
		kind, raw = kindString, n
	case bool:
		kind, raw = kindBool, n
	case int:
		kind, raw = kindInt, n
	case int8:
		kind, raw = kindInt8, n
	case int16:
		kind, raw = kindInt16, n
	case int32:
		kind, raw = kindInt32, n
	case int64:
		kind, raw = kindInt64, n
	case uint:
		kind, raw = kindUint, n
	case uint8:
		kind, raw = kindUint8, n
	case uint16:
		kind, raw = kindUint16, n
	case uint32:
		kind, raw = kindUint32, n
	case uint64:
		kind, raw = kindUint64, n
	case float32:
		// Strings keep NaN and Inf, which JSON numbers cannot hold.
		kind, raw = kindFloat32, strconv.FormatFloat(float64(n), 'g', -1, 32)
	case float64:
		kind, raw = kindFloat64, strconv.FormatFloat(n, 'g', -1, 64)
	case decimal.Decimal:
		kind, raw = kindDecimal, n.String()
	case json.Number:
		kind, raw = kindNumber, n.String()
	case map[string]any:
		nested, err := encodeValues(n)
		if err != nil {
			return valueDoc{}, err
		}
		kind, raw = kindMap, nested
	case []any:
		list := make([]valueDoc, 0, len(n))
		for i, item := range n {
			doc, err := encodeValue(item)
			if err != nil {
				return valueDoc{}, errors.Wrapf(err, "index %d", i)
			}
			list = append(list, doc)
		}
		kind, raw = kindList, list
	case []string:
		kind, raw = kindStrings, n
	default:
		kind, raw = kindJSON, v
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return valueDoc{}, errors.Wrapf(err, "encode %T", v)
	}
	return valueDoc{Kind: kind, Value: b}, nil
}

func decodeValue(doc valueDoc) (any, error) {
	switch doc.Kind {
	case kindNull:
		return nil, nil
	case kindString:
		return unmarshalAs[string](doc)
	case kindBool:
		return unmarshalAs[bool](doc)
	case kindInt:
		return unmarshalAs[int](doc)
	case kindInt8:
		return unmarshalAs[int8](doc)
	case kindInt16:
		return unmarshalAs[int16](doc)
	case kindInt32:
		return unmarshalAs[int32](doc)
	case kindInt64:
		return unmarshalAs[int64](doc)
	case kindUint:
		return unmarshalAs[uint](doc)
	case kindUint8:
		return unmarshalAs[uint8](doc)
	case kindUint16:
		return unmarshalAs[uint16](doc)
	case kindUint32:
		return unmarshalAs[uint32](doc)
	case kindUint64:
		return unmarshalAs[uint64](doc)
	case kindFloat32:
		f, err := parseFloat(doc, 32)
		return float32(f), err
	case kindFloat64:
		return parseFloat(doc, 64)
	case kindDecimal:
		s, err := unmarshalAs[string](doc)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, errors.Wrap(err, "decode decimal")
		}
		return d, nil
	case kindNumber:
		s, err := unmarshalAs[string](doc)
		return json.Number(s), err
	case kindMap:
		nested, err := unmarshalAs[map[string]valueDoc](doc)
		if err != nil {
			return nil, err
		}
		return decodeValues(nested)
	case kindList:
		docs, err := unmarshalAs[[]valueDoc](doc)
		if err != nil {
			return nil, err
		}
		list := make([]any, 0, len(docs))
		for i, d := range docs {
			v, err := decodeValue(d)
			if err != nil {
				return nil, errors.Wrapf(err, "index %d", i)
			}
			list = append(list, v)
		}
		return list, nil
	case kindStrings:
		return unmarshalAs[[]string](doc)
	case kindJSON:
		var v any
		dec := json.NewDecoder(bytes.NewReader(doc.Value))
		dec.UseNumber()
		if err := dec.Decode(&v); err != nil {
			return nil, errors.Wrap(err, "decode json value")
		}
		return v, nil
	default:
		return nil, errors.Errorf("unknown value kind %q", doc.Kind)
	}
}

func unmarshalAs[T any](doc valueDoc) (T, error) {
	var v T
	if err := json.Unmarshal(doc.Value, &v); err != nil {
		return v, errors.Wrapf(err, "decode %s value", doc.Kind)
	}
	return v, nil
}

func parseFloat(doc valueDoc, bits int) (float64, error) {
	s, err := unmarshalAs[string](doc)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(s, bits)
	if err != nil {
		return 0, errors.Wrapf(err, "decode %s value", doc.Kind)
	}
	return f, nil
}
