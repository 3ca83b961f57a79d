package ddl

// Logical column kinds. Backends translate them with their own MapType.
const (
	KindText    = "text"
	KindInteger = "int"
	KindReal    = "real"
	KindBool    = "bool"
	KindDate    = "date"
)

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - Kind: logical kind (text, int, real, bool, date)
//   - SQLType: explicit target SQL type; when empty the dialect maps Kind
//   - Nullable: whether NULL is allowed
//   - PrimaryKey: whether the column is part of the primary key
//   - Default: raw default expression (e.g., 'Unknown', 0)
type ColumnDef struct {
	Name       string
	Kind       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds the table name and an ordered list of columns. FQN may be
// dotted ("schema.table"); renderers quote each segment.
type TableDef struct {
	FQN         string
	Columns     []ColumnDef
	Description string
}

// ColumnNames returns the column names in declaration order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Column returns the column named name.
func (t TableDef) Column(name string) (ColumnDef, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnDef{}, false
}
