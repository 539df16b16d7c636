package importer

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"shoppingcart/internal/domain"
)

// LineAdder receives the parsed lines; *cart.Cart satisfies it.
type LineAdder interface {
	Add(in domain.LineItemInput) (domain.LineItem, error)
}

// CSVImporter reads cart lines from a CSV file with the header
// id,name,price,quantity,tax,total,options. Options is a JSON object and may
// be empty. Rows with the same id and options merge into one line.
type CSVImporter struct {
	reader *csv.Reader
	cart   LineAdder
}

func NewCSVImporter(r io.Reader, cart LineAdder) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{reader: csvr, cart: cart}
}

// Run adds every row to the cart and returns the number of rows added. It
// stops at the first invalid row; rows before it stay in the cart.
func (i *CSVImporter) Run() (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, errors.Wrap(err, "read headers")
	}
	index := headerIndex(headers)
	for _, required := range []string{"id", "name", "quantity"} {
		if _, ok := index[required]; !ok {
			return 0, errors.Errorf("missing %q column", required)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, errors.Wrap(err, "read row")
		}
		if blank(record) {
			continue
		}

		in, err := parseRow(record, index)
		if err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}
		if _, err := i.cart.Add(in); err != nil {
			return imported, errors.Wrapf(err, "line %d", line)
		}
		imported++
	}
	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (domain.LineItemInput, error) {
	in := domain.LineItemInput{
		ID:   pick(record, index, "id"),
		Name: pick(record, index, "name"),
	}

	qty, err := strconv.Atoi(pick(record, index, "quantity"))
	if err != nil {
		return in, errors.Wrap(domain.ErrInvalidInput, "quantity must be an integer")
	}
	in.Quantity = qty

	for _, f := range []struct {
		column string
		dst    *decimal.Decimal
	}{
		{"price", &in.Price},
		{"tax", &in.Tax},
		{"total", &in.Total},
	} {
		raw := pick(record, index, f.column)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return in, errors.Wrapf(domain.ErrInvalidInput, "%s %q is not a number", f.column, raw)
		}
		*f.dst = d
	}

	// A missing total means price * quantity.
	if pick(record, index, "total") == "" {
		in.Total = in.Price.Mul(decimal.NewFromInt(int64(qty)))
	}

	if raw := pick(record, index, "options"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Options); err != nil {
			return in, errors.Wrap(domain.ErrInvalidInput, "options must be a JSON object")
		}
	}
	return in, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
