// Package itemlist decodes the product lists that retail extracts embed in a
// single field. Accepted encodings:
//
//	['Milk', 'Bread']            Python literal, single or double quotes
//	["Milk", "Bread"]            JSON array of strings
//	[{"product_id":"P1","qty":2,"price":3.5}]
//	[Milk, Bread]                bare tokens
//	Milk                         one item
//	Milk|Bread                   pipe or semicolon separated
//
// Values are decoded once, at the reader boundary.
package itemlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"retailhub/pkg/records"
)

// ErrMalformed reports an encoding that cannot be decoded losslessly.
var ErrMalformed = errors.New("itemlist: malformed item list")

// Parse decodes s. An empty or "[]" value yields no items and no error.
func Parse(s string) ([]records.Item, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if s[0] != '[' {
		return splitPlain(s), nil
	}

	var arr []any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&arr); err == nil && !dec.More() {
		return FromValue(arr)
	}

	names, err := parseLiteral(s)
	if err != nil {
		return nil, err
	}
	items := make([]records.Item, 0, len(names))
	for _, n := range names {
		items = append(items, records.Item{ID: n})
	}
	return items, nil
}

// FromValue decodes an already-decoded JSON value: nil, a string (see
// Parse), an array of strings/numbers/objects, or a []records.Item.
func FromValue(v any) ([]records.Item, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []records.Item:
		return t, nil
	case string:
		return Parse(t)
	case []any:
		if len(t) == 0 {
			return nil, nil
		}
		items := make([]records.Item, 0, len(t))
		for i, e := range t {
			switch ev := e.(type) {
			case string:
				id := strings.TrimSpace(ev)
				if id == "" {
					return nil, fmt.Errorf("%w: element %d is empty", ErrMalformed, i)
				}
				items = append(items, records.Item{ID: id})
			case json.Number:
				items = append(items, records.Item{ID: ev.String()})
			case float64:
				items = append(items, records.Item{ID: strconv.FormatFloat(ev, 'f', -1, 64)})
			case map[string]any:
				it, ok := FromObject(ev)
				if !ok {
					return nil, fmt.Errorf("%w: element %d has no product id", ErrMalformed, i)
				}
				items = append(items, it)
			default:
				return nil, fmt.Errorf("%w: element %d has type %T", ErrMalformed, i, e)
			}
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value of type %T", ErrMalformed, v)
	}
}

// FromObject reads one priced item: product_id (or id, sku, name), qty (or
// quantity) and price (or unit_price). LineAmount is price times qty, with
// qty treated as 1 when absent.
func FromObject(m map[string]any) (records.Item, bool) {
	var it records.Item
	for _, k := range []string{"product_id", "id", "sku", "name", "product"} {
		if s := scalarString(m[k]); s != "" {
			it.ID = s
			break
		}
	}
	if it.ID == "" {
		return it, false
	}

	for _, k := range []string{"qty", "quantity"} {
		if q, ok := number(m[k]); ok {
			it.Quantity = int(q)
			break
		}
	}
	for _, k := range []string{"price", "unit_price"} {
		if p, ok := number(m[k]); ok {
			q := it.Quantity
			if q <= 0 {
				q = 1
			}
			it.LineAmount = p * float64(q)
			break
		}
	}
	return it, true
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

func splitPlain(s string) []records.Item {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ';' })
	items := make([]records.Item, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			items = append(items, records.Item{ID: p})
		}
	}
	return items
}

// parseLiteral decodes a bracketed list of quoted or bare tokens.
func parseLiteral(s string) ([]string, error) {
	rs := []rune(s)
	i := 1 // past '['
	n := len(rs)
	var out []string

	skipSpace := func() {
		for i < n && (rs[i] == ' ' || rs[i] == '\t' || rs[i] == '\n' || rs[i] == '\r') {
			i++
		}
	}

	skipSpace()
	if i < n && rs[i] == ']' {
		i++
		skipSpace()
		if i != n {
			return nil, fmt.Errorf("%w: trailing content after ']'", ErrMalformed)
		}
		return nil, nil
	}

	for {
		skipSpace()
		if i >= n {
			return nil, fmt.Errorf("%w: missing ']'", ErrMalformed)
		}

		var tok string
		switch q := rs[i]; q {
		case '\'', '"':
			i++
			var b strings.Builder
			closed := false
			for i < n {
				c := rs[i]
				if c == '\\' && i+1 < n {
					b.WriteRune(unescape(rs[i+1]))
					i += 2
					continue
				}
				i++
				if c == q {
					closed = true
					break
				}
				b.WriteRune(c)
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated quote", ErrMalformed)
			}
			tok = b.String()
		case ',', ']':
			return nil, fmt.Errorf("%w: empty element at offset %d", ErrMalformed, i)
		default:
			start := i
			for i < n && rs[i] != ',' && rs[i] != ']' {
				if rs[i] == '\'' || rs[i] == '"' || rs[i] == '[' {
					return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrMalformed, rs[i], i)
				}
				i++
			}
			tok = strings.TrimSpace(string(rs[start:i]))
		}
		out = append(out, tok)

		skipSpace()
		if i >= n {
			return nil, fmt.Errorf("%w: missing ']'", ErrMalformed)
		}
		switch rs[i] {
		case ',':
			i++
			skipSpace()
			// Python allows a trailing comma.
			if i < n && rs[i] == ']' {
				i++
				return out, trailing(rs, i)
			}
		case ']':
			i++
			return out, trailing(rs, i)
		default:
			return nil, fmt.Errorf("%w: expected ',' or ']' at offset %d", ErrMalformed, i)
		}
	}
}

func trailing(rs []rune, i int) error {
	if strings.TrimSpace(string(rs[i:])) != "" {
		return fmt.Errorf("%w: trailing content after ']'", ErrMalformed)
	}
	return nil
}

func unescape(r rune) rune {
	switch r {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	}
	return r
}
