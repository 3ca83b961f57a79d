// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import (
	"fmt"
	"strings"

	gddl "retailhub/internal/ddl"
)

// MapType normalizes a loosely-specified logical type into a Postgres SQL type.
//
//	"int"/"integer"/"bigint"   -> BIGINT
//	"real"/"float"/"double"    -> DOUBLE PRECISION
//	"bool"/"boolean"           -> BOOLEAN
//	"date"                     -> DATE
//	"timestamp"/"timestamptz"  -> TIMESTAMPTZ
//	everything else            -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "real", "float", "double":
		return "DOUBLE PRECISION"
	case "bool", "boolean":
		return "BOOLEAN"
	case "date":
		return "DATE"
	case "timestamp", "timestamptz":
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// Dialect renders Postgres DDL: double-quoted identifiers, $n placeholders.
var Dialect = gddl.Dialect{
	Name:             "postgres",
	QuoteIdent:       gddl.DoubleQuote,
	MapType:          MapType,
	AddColumnKeyword: "COLUMN",
	Placeholder:      func(i int) string { return fmt.Sprintf("$%d", i+1) },
}
