// Package ddl contains MSSQL-specific helpers for generating DDL.
//
// It maps logical types into SQL Server types. The mapping is conservative
// and biased toward safe, widely-supported choices.
package ddl

import (
	"fmt"
	"strings"

	gddl "retailhub/internal/ddl"
)

// MapType maps a logical type string into a SQL Server column type.
// Unknown or empty kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "int", "integer", "bigint":
		return "BIGINT"
	case "bool", "boolean":
		return "BIT"
	case "date":
		return "DATE"
	case "timestamp", "datetime", "timestamptz":
		return "DATETIME2"
	case "real", "float", "double":
		return "FLOAT"
	case "numeric", "decimal":
		return "DECIMAL(38, 10)"
	case "uuid":
		return "UNIQUEIDENTIFIER"
	default:
		return "NVARCHAR(MAX)"
	}
}

// MapKeyType is MapType for primary-key columns: text keys are bounded so
// they can be indexed.
func MapKeyType(kind string) string {
	if typ := MapType(kind); typ != "NVARCHAR(MAX)" {
		return typ
	}
	return "NVARCHAR(450)"
}

// Dialect renders T-SQL: [bracket] identifiers, @pN placeholders, and
// ALTER TABLE ... ADD without the COLUMN keyword.
var Dialect = gddl.Dialect{
	Name:        "mssql",
	QuoteIdent:  QuoteIdent,
	MapType:     MapType,
	MapKeyType:  MapKeyType,
	Placeholder: func(i int) string { return fmt.Sprintf("@p%d", i+1) },
}

// QuoteIdent quotes a SQL Server identifier using [brackets], escaping ].
func QuoteIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }
