package reader

import (
	"fmt"
	"strconv"
	"strings"

	"retailhub/internal/parser/itemlist"
	"retailhub/internal/transformer/builtin"
	"retailhub/pkg/records"
)

// shapeTabular decodes the item field of a CSV row. A POS row with a scalar
// product_id (and optional quantity) becomes a single priced item.
func shapeTabular(r records.Record) (records.Record, error) {
	if s, ok := r[records.FieldItems].(string); ok && isNullToken(s) {
		r[records.FieldItems] = nil
	}
	if v, ok := r[records.FieldItems]; ok && v != nil {
		items, err := itemlist.FromValue(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRecordMalformed, err)
		}
		r[records.FieldItems] = items
		return r, nil
	}

	if r.IsMissing("product_id") {
		return r, nil
	}
	it := records.Item{ID: r.String("product_id")}
	if q := r.String("quantity"); q != "" {
		n, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: quantity %q", ErrRecordMalformed, q)
		}
		it.Quantity = n
	}
	if total, ok := r.Float(records.FieldTotalAmount); ok {
		it.LineAmount = total
	}
	if isNullToken(it.ID) {
		return r, nil
	}
	delete(r, "product_id")
	delete(r, "quantity")
	r[records.FieldItems] = []records.Item{it}
	return r, nil
}

func isNullToken(s string) bool {
	s = strings.TrimSpace(s)
	for _, t := range builtin.DefaultNullTokens {
		if strings.EqualFold(s, t) {
			return true
		}
	}
	return false
}
