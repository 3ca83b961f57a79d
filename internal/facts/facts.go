// Package facts explodes raw transactions into item-level sale facts.
package facts

import (
	"sort"

	"retailhub/internal/logging"
	"retailhub/pkg/records"
)

// UnknownDate is the date key of a sale whose timestamp cannot be parsed.
const UnknownDate = "Unknown"

// Sale is one (transaction, item) fact. Attributes carries source fields
// beyond the fixed columns (payment_method, store_id, ...).
type Sale struct {
	TransactionID string
	DateKey       string
	ProductKey    string
	Quantity      int
	TotalAmount   float64
	City          string
	CustomerName  string
	Season        string
	SourceSystem  string
	Attributes    map[string]any
}

// FlattenStats counts what Flatten did.
type FlattenStats struct {
	Input           int
	Emitted         int
	SkippedEmpty    int
	SeasonDerived   int
	SeasonCorrected int
	UnknownDates    int
	AllocationFails int
}

// Merge adds o into s.
func (s *FlattenStats) Merge(o FlattenStats) {
	s.Input += o.Input
	s.Emitted += o.Emitted
	s.SkippedEmpty += o.SkippedEmpty
	s.SeasonDerived += o.SeasonDerived
	s.SeasonCorrected += o.SeasonCorrected
	s.UnknownDates += o.UnknownDates
	s.AllocationFails += o.AllocationFails
}

// fixedFields never land in Attributes.
var fixedFields = map[string]bool{
	records.FieldTransactionID: true,
	records.FieldTimestamp:     true,
	records.FieldCustomerName:  true,
	records.FieldItems:         true,
	records.FieldTotalAmount:   true,
	records.FieldCity:          true,
	records.FieldSeason:        true,
	records.FieldSourceSystem:  true,
}

// Flatten emits one Sale per item of every record, in input order. Records
// with no items contribute nothing and are counted.
func Flatten(raw []records.Record) ([]Sale, FlattenStats) {
	st := FlattenStats{Input: len(raw)}
	out := make([]Sale, 0, len(raw))

	for _, r := range raw {
		items := r.Items()
		if len(items) == 0 {
			st.SkippedEmpty++
			continue
		}

		total, _ := r.Float(records.FieldTotalAmount)
		shares, err := Allocate(total, items)
		if err != nil {
			logging.Warn().Str("transaction_id", r.String(records.FieldTransactionID)).Err(err).Msg("transform: allocation failed")
			st.AllocationFails++
			continue
		}

		dateKey, season := UnknownDate, canonicalSeason(r.String(records.FieldSeason))
		if ts, ok := ParseTimestamp(r.String(records.FieldTimestamp)); ok {
			dateKey = ts.Format(DateKeyLayout)
			want := SeasonOf(ts.Month())
			switch {
			case season == "":
				season = want
				st.SeasonDerived++
			case season != want:
				season = want
				st.SeasonCorrected++
			}
		} else {
			st.UnknownDates++
			if season == "" {
				season = r.String(records.FieldSeason)
			}
			if season == "" {
				season = UnknownDate
			}
		}

		attrs := attributes(r)
		for i, it := range items {
			q := it.Quantity
			if q <= 0 {
				q = 1
			}
			out = append(out, Sale{
				TransactionID: r.String(records.FieldTransactionID),
				DateKey:       dateKey,
				ProductKey:    it.ID,
				Quantity:      q,
				TotalAmount:   shares[i],
				City:          r.String(records.FieldCity),
				CustomerName:  r.String(records.FieldCustomerName),
				Season:        season,
				SourceSystem:  r.String(records.FieldSourceSystem),
				Attributes:    attrs,
			})
		}
	}
	st.Emitted = len(out)
	return out, st
}

func attributes(r records.Record) map[string]any {
	var attrs map[string]any
	for k, v := range r {
		if fixedFields[k] || v == nil {
			continue
		}
		if attrs == nil {
			attrs = map[string]any{}
		}
		attrs[k] = v
	}
	return attrs
}

// AttributeColumns returns the sorted union of attribute keys across sales
// together with whether every observed value of each is numeric.
func AttributeColumns(sales []Sale) ([]string, map[string]bool) {
	numeric := map[string]bool{}
	for _, s := range sales {
		for k, v := range s.Attributes {
			isNum := false
			switch v.(type) {
			case float64, int, int64:
				isNum = true
			}
			prev, seen := numeric[k]
			numeric[k] = isNum && (!seen || prev)
		}
	}
	cols := make([]string, 0, len(numeric))
	for k := range numeric {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, numeric
}
