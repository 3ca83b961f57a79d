// Package records defines the semi-structured row shape that flows between
// readers, cleaning rules and the fact transformer.
package records

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Canonical field names shared by every source reader.
const (
	FieldTransactionID = "transaction_id"
	FieldTimestamp     = "timestamp"
	FieldCustomerName  = "customer_name"
	FieldItems         = "items"
	FieldTotalAmount   = "total_amount"
	FieldCity          = "city"
	FieldPaymentMethod = "payment_method"
	FieldSeason        = "season"
	FieldSourceSystem  = "source_system"
)

// Record is one raw row keyed by field name. Values are nil, string,
// float64, int, bool or []Item.
type Record map[string]any

// Item is one product reference inside a transaction. Quantity is zero when
// the source does not carry one; LineAmount is zero when the source does not
// itemize costs.
type Item struct {
	ID         string
	Quantity   int
	LineAmount float64
}

// String returns the field as a trimmed string, or "" when absent.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the field as float64. ok is false when the field is absent or
// not numeric.
func (r Record) Float(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, !math.IsNaN(v) && !math.IsInf(v, 0)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Items returns the parsed item list. Readers store []Item under FieldItems
// once; nothing downstream re-parses it.
func (r Record) Items() []Item {
	items, _ := r[FieldItems].([]Item)
	return items
}

// IsMissing reports whether key is absent, nil or a blank string.
func (r Record) IsMissing(key string) bool {
	switch v := r[key].(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}
