package etl

import (
	"fmt"

	"retailhub/internal/dimension"
	"retailhub/internal/facts"
	"retailhub/internal/schema"
	"retailhub/internal/storage"
	"retailhub/internal/synth"
)

var customerColumns = []string{"customer_key", "name", "city", "valid_from", "valid_to", "is_current"}

func productTable(ps []dimension.Product) storage.Table {
	rows := make([][]any, len(ps))
	for i, p := range ps {
		rows[i] = []any{p.Key, p.Name, p.Category}
	}
	return storage.Table{Name: schema.TableProduct, Columns: []string{"product_key", "name", "category"}, Rows: rows}
}

func customerTable(cs []dimension.Customer) storage.Table {
	rows := make([][]any, len(cs))
	for i, c := range cs {
		rows[i] = []any{c.Key, c.Name, c.City, c.ValidFrom, storage.NullString(c.ValidTo), storage.BoolInt(c.IsCurrent)}
	}
	return storage.Table{Name: schema.TableCustomer, Columns: customerColumns, Rows: rows}
}

func storeTable(ss []dimension.Store) storage.Table {
	rows := make([][]any, len(ss))
	for i, s := range ss {
		rows[i] = []any{s.Key, s.City, s.Region}
	}
	return storage.Table{Name: schema.TableStore, Columns: []string{"store_key", "city", "region"}, Rows: rows}
}

// salesTable lays out the base columns followed by attrs. A sale lacking an
// attribute gets NULL; numeric attributes are written as float64, anything
// else as text.
func salesTable(sales []facts.Sale, attrs []string, numeric map[string]bool) storage.Table {
	cols := make([]string, 0, len(schema.SalesColumns)+len(attrs))
	cols = append(cols, schema.SalesColumns...)
	cols = append(cols, attrs...)

	rows := make([][]any, len(sales))
	for i, s := range sales {
		row := make([]any, 0, len(cols))
		row = append(row,
			s.TransactionID, s.DateKey, s.ProductKey, int64(s.Quantity), s.TotalAmount,
			s.City, s.CustomerName, s.Season, s.SourceSystem,
		)
		for _, a := range attrs {
			row = append(row, attributeValue(s.Attributes[a], numeric[a]))
		}
		rows[i] = row
	}
	return storage.Table{Name: schema.TableSales, Columns: cols, Rows: rows}
}

func attributeValue(v any, numeric bool) any {
	if v == nil {
		return nil
	}
	if numeric {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		}
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func inventoryTable(inv []synth.Inventory) storage.Table {
	rows := make([][]any, len(inv))
	for i, v := range inv {
		rows[i] = []any{v.ProductKey, int64(v.StockLevel), v.TurnoverRatio}
	}
	return storage.Table{Name: schema.TableInventory, Columns: []string{"product_key", "stock_level", "turnover_ratio"}, Rows: rows}
}

func shipmentTable(sh []synth.Shipment) storage.Table {
	rows := make([][]any, len(sh))
	for i, s := range sh {
		rows[i] = []any{s.TransactionID, int64(s.DeliveryDays), s.Status}
	}
	return storage.Table{Name: schema.TableShipments, Columns: []string{"transaction_id", "delivery_days", "status"}, Rows: rows}
}
