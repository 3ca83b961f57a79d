// Package schema owns the warehouse table definitions and the Schema
// Manager that rebuilds and evolves them.
package schema

import (
	"strings"

	"retailhub/internal/ddl"
)

// Table names.
const (
	TableMetadata   = "ETL_Metadata"
	TableRunSummary = "ETL_Run_Summary"
	TableProduct    = "Dim_Product"
	TableCustomer   = "Dim_Customer"
	TableStore      = "Dim_Store"
	TableSales      = "Fact_Sales"
	TableInventory  = "Fact_Inventory"
	TableShipments  = "Fact_Shipments"
)

// Provenance values recorded in ETL_Metadata.
const (
	ProvenanceCore      = "core"
	ProvenanceSourced   = "sourced"
	ProvenanceDerived   = "derived"
	ProvenanceSynthetic = "synthetic"
)

// Definition is a table together with its provenance.
type Definition struct {
	ddl.TableDef
	Provenance string
}

func textCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Kind: ddl.KindText} }

func intCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Kind: ddl.KindInteger} }

func realCol(name string) ddl.ColumnDef { return ddl.ColumnDef{Name: name, Kind: ddl.KindReal} }

func key(c ddl.ColumnDef) ddl.ColumnDef {
	c.PrimaryKey = true
	return c
}

func nullable(c ddl.ColumnDef) ddl.ColumnDef {
	c.Nullable = true
	return c
}

// SalesColumns is the base column set of Fact_Sales, in load order.
// Evolved attribute columns follow them.
var SalesColumns = []string{
	"transaction_id", "date_key", "product_key", "quantity", "total_amount",
	"city", "customer_name", "season", "source_system",
}

// Definitions returns every table in creation order. Dates are stored as
// ISO-8601 text and flags as 0/1 integers on every backend.
func Definitions() []Definition {
	return []Definition{
		{Provenance: ProvenanceCore, TableDef: ddl.TableDef{
			FQN:         TableMetadata,
			Description: "Provenance of every warehouse table.",
			Columns:     []ddl.ColumnDef{key(textCol("table_name")), textCol("provenance"), textCol("description")},
		}},
		{Provenance: ProvenanceCore, TableDef: ddl.TableDef{
			FQN:         TableRunSummary,
			Description: "Counters of the last run: rows read, dropped, repaired and loaded.",
			Columns:     []ddl.ColumnDef{key(textCol("metric")), realCol("value")},
		}},
		{Provenance: ProvenanceDerived, TableDef: ddl.TableDef{
			FQN:         TableProduct,
			Description: "One row per distinct product key seen in sales.",
			Columns:     []ddl.ColumnDef{key(textCol("product_key")), textCol("name"), textCol("category")},
		}},
		{Provenance: ProvenanceDerived, TableDef: ddl.TableDef{
			FQN:         TableCustomer,
			Description: "Customer city history as slowly changing dimension type 2.",
			Columns: []ddl.ColumnDef{
				key(intCol("customer_key")), textCol("name"), textCol("city"),
				key(textCol("valid_from")), nullable(textCol("valid_to")), intCol("is_current"),
			},
		}},
		{Provenance: ProvenanceDerived, TableDef: ddl.TableDef{
			FQN:         TableStore,
			Description: "One row per store code derived from the sale city.",
			Columns:     []ddl.ColumnDef{key(textCol("store_key")), textCol("city"), textCol("region")},
		}},
		{Provenance: ProvenanceSourced, TableDef: ddl.TableDef{
			FQN:         TableSales,
			Description: "One row per transaction and product with the allocated amount.",
			Columns: []ddl.ColumnDef{
				textCol("transaction_id"), textCol("date_key"), textCol("product_key"), intCol("quantity"),
				realCol("total_amount"), textCol("city"), textCol("customer_name"), textCol("season"), textCol("source_system"),
			},
		}},
		{Provenance: ProvenanceSynthetic, TableDef: ddl.TableDef{
			FQN:         TableInventory,
			Description: "Generated stock level and turnover per product.",
			Columns:     []ddl.ColumnDef{key(textCol("product_key")), intCol("stock_level"), realCol("turnover_ratio")},
		}},
		{Provenance: ProvenanceSynthetic, TableDef: ddl.TableDef{
			FQN:         TableShipments,
			Description: "Generated delivery time and status for a sample of transactions.",
			Columns:     []ddl.ColumnDef{key(textCol("transaction_id")), intCol("delivery_days"), textCol("status")},
		}},
	}
}

// Lookup returns the definition of table.
func Lookup(table string) (Definition, bool) {
	for _, d := range Definitions() {
		if strings.EqualFold(d.FQN, table) {
			return d, true
		}
	}
	return Definition{}, false
}

// ObservedColumns maps attribute names to loosely-typed nullable columns:
// REAL when every observation was numeric, TEXT otherwise.
func ObservedColumns(names []string, numeric map[string]bool) []ddl.ColumnDef {
	out := make([]ddl.ColumnDef, 0, len(names))
	for _, n := range names {
		c := nullable(textCol(n))
		if numeric[n] {
			c.Kind = ddl.KindReal
		}
		out = append(out, c)
	}
	return out
}
