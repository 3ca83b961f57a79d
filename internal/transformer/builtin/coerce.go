package builtin

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"retailhub/pkg/records"
)

// Coerce converts string and json.Number fields to typed values.
type Coerce struct {
	Types map[string]string // field -> one of: int, float, bool, string

	// Strict replaces values that fail to convert with nil so later rules
	// see them as missing. Otherwise the original value is kept.
	Strict bool

	// Invalid is set by Apply to the number of values that failed to convert.
	Invalid int
}

// Apply coerces every record in place.
func (c *Coerce) Apply(in []records.Record) []records.Record {
	c.Invalid = 0
	if len(c.Types) == 0 {
		return in
	}
	for _, r := range in {
		for field, typ := range c.Types {
			v, ok := r[field]
			if !ok || v == nil {
				continue
			}
			out, ok := coerceValue(v, typ)
			switch {
			case ok:
				r[field] = out
			case c.Strict:
				r[field] = nil
				c.Invalid++
			default:
				c.Invalid++
			}
		}
	}
	return in
}

func coerceValue(v any, typ string) (any, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		switch typ {
		case "int":
			return int(t), t == math.Trunc(t)
		case "float":
			return t, !math.IsNaN(t) && !math.IsInf(t, 0)
		case "string":
			return strconv.FormatFloat(t, 'f', -1, 64), true
		}
		return v, false
	case int:
		switch typ {
		case "int":
			return t, true
		case "float":
			return float64(t), true
		case "string":
			return strconv.Itoa(t), true
		}
		return v, false
	case bool:
		switch typ {
		case "bool":
			return t, true
		case "string":
			return strconv.FormatBool(t), true
		}
		return v, false
	default:
		return v, typ == ""
	}

	switch typ {
	case "int":
		i, err := strconv.Atoi(s)
		return i, err == nil
	case "float":
		// Extracts sometimes carry a currency sign or thousands separators.
		s = strings.TrimLeft(s, "$€£")
		s = strings.ReplaceAll(s, ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	case "bool":
		b, err := strconv.ParseBool(s)
		return b, err == nil
	default:
		return s, true
	}
}
