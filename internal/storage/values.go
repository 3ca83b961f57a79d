package storage

import (
	"fmt"
	"strconv"
)

// AsString converts a scanned driver value to a string. NULL becomes "".
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

// AsInt64 converts a scanned driver value to an int64.
func AsInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int32:
		return int64(t), nil
	case int:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	case []byte:
		return strconv.ParseInt(string(t), 10, 64)
	case nil:
		return 0, fmt.Errorf("storage: NULL is not an integer")
	default:
		return 0, fmt.Errorf("storage: unsupported integer value %T", v)
	}
}

// BoolInt renders a flag as 0/1 for INTEGER flag columns.
func BoolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// NullString maps "" to NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
