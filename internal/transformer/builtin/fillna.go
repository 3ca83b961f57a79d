package builtin

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"retailhub/pkg/records"
)

// Column kinds used by FillNA.
const (
	KindText    = "text"
	KindNumeric = "numeric"
)

// FillNA replaces missing values column by column: text columns get
// Sentinel, numeric columns get 0.0. The column set is every key seen in the
// batch plus every declared column, so a record lacking a column gains it.
//
// A column's kind comes from Kinds when declared. Otherwise it is numeric
// when every present value is numeric, and text when it has no present
// values or any non-numeric one.
type FillNA struct {
	Sentinel string
	Kinds    map[string]string
	Skip     []string

	// Repaired is set by Apply: column -> number of cells filled.
	Repaired map[string]int
}

// Apply fills the batch in place. It never fails.
func (f *FillNA) Apply(in []records.Record) []records.Record {
	f.Repaired = map[string]int{}
	if len(in) == 0 {
		return in
	}

	skip := make(map[string]bool, len(f.Skip))
	for _, s := range f.Skip {
		skip[s] = true
	}

	cols := map[string]struct{}{}
	for c := range f.Kinds {
		cols[c] = struct{}{}
	}
	for _, r := range in {
		for c := range r {
			cols[c] = struct{}{}
		}
	}
	ordered := make([]string, 0, len(cols))
	for c := range cols {
		if !skip[c] {
			ordered = append(ordered, c)
		}
	}
	sort.Strings(ordered)

	for _, col := range ordered {
		kind, declared := f.Kinds[col]
		if !declared {
			kind = inferKind(in, col)
		}
		var fill any = f.Sentinel
		if kind == KindNumeric {
			fill = 0.0
		}
		for _, r := range in {
			if r.IsMissing(col) {
				r[col] = fill
				f.Repaired[col]++
			}
		}
	}
	return in
}

// ColumnsRepaired is the number of columns with at least one filled cell.
func (f *FillNA) ColumnsRepaired() int {
	return len(f.Repaired)
}

func inferKind(in []records.Record, col string) string {
	seen := false
	for _, r := range in {
		if r.IsMissing(col) {
			continue
		}
		seen = true
		if !isNumeric(r[col]) {
			return KindText
		}
	}
	if !seen {
		return KindText
	}
	return KindNumeric
}

func isNumeric(v any) bool {
	switch t := v.(type) {
	case float64, int, int64, json.Number:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return err == nil
	}
	return false
}
