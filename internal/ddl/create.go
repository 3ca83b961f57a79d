// Package ddl defines a small, backend-agnostic model for SQL DDL and a
// Dialect that renders it.
//
// Backend packages (internal/storage/<kind>/ddl) supply a Dialect value with
// their own identifier quoting and type mapping; everything else about the
// rendered statements is shared:
//
//   - CREATE TABLE renders PRIMARY KEY as a separate table constraint, in
//     declaration order, and primary-key columns are always NOT NULL.
//   - ColumnDef.Default is emitted as raw SQL.
//   - DROP TABLE and ALTER TABLE are guarded so they can be replayed.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures the pieces of SQL that differ between backends.
type Dialect struct {
	// Name labels error messages, e.g. "sqlite".
	Name string
	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(string) string
	// MapType translates a logical kind into a column type.
	MapType func(kind string) string
	// MapKeyType, when set, replaces MapType for primary-key columns
	// (SQL Server cannot index NVARCHAR(MAX)).
	MapKeyType func(kind string) string
	// AddColumnKeyword is inserted between ADD and the column name
	// ("COLUMN" for sqlite/postgres, empty for SQL Server).
	AddColumnKeyword string
	// Placeholder renders the i-th (0-based) bind parameter.
	Placeholder func(i int) string
}

// QuoteFQN quotes every dotted segment of name.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// ColumnType resolves the SQL type of c.
func (d Dialect) ColumnType(c ColumnDef) string {
	if typ := strings.TrimSpace(c.SQLType); typ != "" {
		return typ
	}
	if strings.TrimSpace(c.Kind) == "" {
		return ""
	}
	if c.PrimaryKey && d.MapKeyType != nil {
		return d.MapKeyType(c.Kind)
	}
	return d.MapType(c.Kind)
}

// CreateTable renders a CREATE TABLE statement for t.
//
//	CREATE TABLE "t" (
//	  "col1" TYPE NOT NULL [DEFAULT expr],
//	  "col2" TYPE,
//	  PRIMARY KEY ("pk1", "pk2")
//	);
func (d Dialect) CreateTable(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		def, err := d.columnDef(fqn, c)
		if err != nil {
			return "", err
		}
		cols = append(cols, def)
		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(strings.TrimSpace(c.Name)))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		d.QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// DropTable renders DROP TABLE IF EXISTS for table.
func (d Dialect) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", d.QuoteFQN(table))
}

// AddColumn renders ALTER TABLE ... ADD for one column. Added columns are
// always nullable since existing rows have no value for them.
func (d Dialect) AddColumn(table string, c ColumnDef) (string, error) {
	c.Nullable = true
	c.PrimaryKey = false
	def, err := d.columnDef(table, c)
	if err != nil {
		return "", err
	}
	add := "ADD "
	if d.AddColumnKeyword != "" {
		add += d.AddColumnKeyword + " "
	}
	return fmt.Sprintf("ALTER TABLE %s %s%s;", d.QuoteFQN(table), add, def), nil
}

// Insert renders a parameterized INSERT for the given columns.
func (d Dialect) Insert(table string, columns []string) string {
	quoted := make([]string, len(columns))
	params := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
		params[i] = d.Placeholder(i)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteFQN(table),
		strings.Join(quoted, ", "),
		strings.Join(params, ", "),
	)
}

// Select renders a SELECT of columns from table.
func (d Dialect) Select(table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdent(c)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), d.QuoteFQN(table))
}

func (d Dialect) columnDef(table string, c ColumnDef) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, table)
	}
	typ := d.ColumnType(c)
	if typ == "" {
		return "", fmt.Errorf("%s ddl: column %s missing type", d.Name, name)
	}

	var sb strings.Builder
	sb.WriteString(d.QuoteIdent(name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	if !c.Nullable || c.PrimaryKey {
		sb.WriteString(" NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	return sb.String(), nil
}

// DoubleQuote quotes an identifier ANSI-style, escaping embedded quotes.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
