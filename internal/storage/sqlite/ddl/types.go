// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import (
	"strings"

	gddl "retailhub/internal/ddl"
)

// MapType maps a logical type string (e.g., "int", "bool", "date") into a
// SQLite column type.
//
// SQLite uses dynamic typing, so the mapping targets canonical affinities:
//   - integer-ish types -> INTEGER
//   - boolean          -> INTEGER (0/1)
//   - float/real       -> REAL
//   - date/time        -> TEXT (ISO-8601)
//   - others           -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "INTEGER"
	case "bool", "boolean":
		return "INTEGER"
	case "float", "double", "real":
		return "REAL"
	case "numeric", "decimal":
		return "NUMERIC"
	case "date", "timestamp", "datetime", "timestamptz":
		return "TEXT"
	case "blob", "bytes":
		return "BLOB"
	default:
		return "TEXT"
	}
}

// Dialect renders SQLite DDL: double-quoted identifiers, ? placeholders.
var Dialect = gddl.Dialect{
	Name:             "sqlite",
	QuoteIdent:       gddl.DoubleQuote,
	MapType:          MapType,
	AddColumnKeyword: "COLUMN",
	Placeholder:      func(int) string { return "?" },
}
