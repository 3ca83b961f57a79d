package reader

import (
	"encoding/json"
	"fmt"
	"strconv"

	"retailhub/internal/parser/itemlist"
	"retailhub/internal/textutil"
	"retailhub/pkg/records"
)

// Aliases tried, in order, for each canonical field of an order object.
var orderAliases = map[string][]string{
	records.FieldTransactionID: {"order_id", "transaction_id", "id"},
	records.FieldTimestamp:     {"order_date", "timestamp", "date", "created_at"},
	records.FieldTotalAmount:   {"total_amount", "total", "order_total"},
	records.FieldPaymentMethod: {"payment_method", "payment"},
	records.FieldSeason:        {"season"},
	records.FieldCity:          {"city", "customer_city"},
}

// shapeOrder flattens one nested order into a raw record. The embedded
// customer object supplies name, id and city; the item list stays embedded.
// A missing total is computed from priced items.
func shapeOrder(o records.Record) (records.Record, error) {
	out := records.Record{}
	consumed := map[string]bool{"items": true, "customer": true, "status": true}

	for field, keys := range orderAliases {
		for _, k := range keys {
			if v, ok := o[k]; ok && v != nil {
				out[field] = scalar(v)
				consumed[k] = true
				break
			}
		}
	}

	switch c := o["customer"].(type) {
	case map[string]any:
		if name := scalar(c["name"]); name != nil {
			out[records.FieldCustomerName] = name
		}
		if id := scalar(c["id"]); id != nil {
			out["customer_id"] = id
		}
		city := c["city"]
		if addr, ok := c["address"].(map[string]any); ok && addr["city"] != nil {
			city = addr["city"]
		}
		if s := scalar(city); s != nil {
			out[records.FieldCity] = s
		}
	case string:
		out[records.FieldCustomerName] = c
	}
	if _, ok := out[records.FieldCustomerName]; !ok {
		if v, ok := o["customer_name"]; ok {
			out[records.FieldCustomerName] = scalar(v)
			consumed["customer_name"] = true
		}
	}

	if s := scalar(o["status"]); s != nil {
		out["order_status"] = s
	}

	items, err := itemlist.FromValue(o["items"])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRecordMalformed, err)
	}
	out[records.FieldItems] = items

	if _, ok := out[records.FieldTotalAmount]; !ok {
		var sum float64
		priced := false
		for _, it := range items {
			if it.LineAmount != 0 {
				priced = true
			}
			sum += it.LineAmount
		}
		if priced {
			out[records.FieldTotalAmount] = sum
		}
	}

	// Remaining top-level scalars become extra attributes.
	for k, v := range o {
		if consumed[k] {
			continue
		}
		key := textutil.FieldName(k)
		if key == "" {
			continue
		}
		if _, taken := out[key]; taken {
			continue
		}
		if s := scalar(v); s != nil {
			out[key] = s
		}
	}
	return out, nil
}

// scalar maps decoded JSON scalars to record values: numbers to float64,
// booleans to strings. Objects and arrays yield nil.
func scalar(v any) any {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return nil
}
