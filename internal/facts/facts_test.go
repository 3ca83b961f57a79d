package facts

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"retailhub/pkg/records"
)

func named(ids ...string) []records.Item {
	out := make([]records.Item, len(ids))
	for i, id := range ids {
		out[i] = records.Item{ID: id}
	}
	return out
}

func TestFlatten_MilkBread(t *testing.T) {
	t.Parallel()

	raw := []records.Record{{
		records.FieldTransactionID: "T1",
		records.FieldItems:         named("Milk", "Bread"),
		records.FieldTotalAmount:   10.00,
		records.FieldCity:          "Boston",
		records.FieldTimestamp:     "2024-01-15 10:30:00",
		records.FieldSourceSystem:  "HIST",
	}}

	sales, st := Flatten(raw)
	if len(sales) != 2 || st.Emitted != 2 {
		t.Fatalf("len(sales) = %d, want 2", len(sales))
	}
	keys := map[string]bool{}
	for _, s := range sales {
		if s.TotalAmount != 5.00 || s.City != "Boston" || s.Quantity != 1 {
			t.Fatalf("sale = %+v", s)
		}
		if s.DateKey != "2024-01-15" || s.Season != Winter || s.SourceSystem != "HIST" {
			t.Fatalf("sale = %+v", s)
		}
		keys[s.ProductKey] = true
	}
	if !keys["Milk"] || !keys["Bread"] {
		t.Fatalf("product keys = %v", keys)
	}
	if st.SeasonDerived != 1 {
		t.Fatalf("SeasonDerived = %d, want 1", st.SeasonDerived)
	}
}

func TestFlatten_CountConservation(t *testing.T) {
	t.Parallel()

	raw := []records.Record{
		{records.FieldTransactionID: "A", records.FieldItems: named("x", "y", "z"), records.FieldTotalAmount: 9.0},
		{records.FieldTransactionID: "B", records.FieldItems: []records.Item{}, records.FieldTotalAmount: 3.0},
		{records.FieldTransactionID: "C", records.FieldTotalAmount: 3.0},
		{records.FieldTransactionID: "D", records.FieldItems: named("x"), records.FieldTotalAmount: 1.0},
	}
	sales, st := Flatten(raw)
	if len(sales) != 4 {
		t.Fatalf("len(sales) = %d, want 3+0+0+1", len(sales))
	}
	if st.SkippedEmpty != 2 || st.Input != 4 {
		t.Fatalf("stats = %+v", st)
	}
	if st.UnknownDates != 2 || sales[0].DateKey != UnknownDate || sales[0].Season != UnknownDate {
		t.Fatalf("unknown date handling: stats=%+v sale=%+v", st, sales[0])
	}
}

func TestFlatten_QuantityAndAttributes(t *testing.T) {
	t.Parallel()

	raw := []records.Record{{
		records.FieldTransactionID: "W1",
		records.FieldItems:         []records.Item{{ID: "P1", Quantity: 3, LineAmount: 6}, {ID: "P2", Quantity: 1, LineAmount: 2}},
		records.FieldTotalAmount:   8.0,
		records.FieldTimestamp:     "2024-07-04T12:00:00Z",
		records.FieldSeason:        "winter",
		records.FieldPaymentMethod: "Card",
		"store_id":                 "S001",
		"promo":                    nil,
	}}
	sales, st := Flatten(raw)
	if sales[0].Quantity != 3 || sales[0].TotalAmount != 6 || sales[1].TotalAmount != 2 {
		t.Fatalf("proportional split = %+v", sales)
	}
	if sales[0].Season != Summer || st.SeasonCorrected != 1 {
		t.Fatalf("season = %q corrected = %d", sales[0].Season, st.SeasonCorrected)
	}
	want := map[string]any{records.FieldPaymentMethod: "Card", "store_id": "S001"}
	if !reflect.DeepEqual(sales[0].Attributes, want) {
		t.Fatalf("attributes = %#v", sales[0].Attributes)
	}
}

func TestFlatten_SeasonPassThrough(t *testing.T) {
	t.Parallel()

	raw := []records.Record{{
		records.FieldItems:     named("a"),
		records.FieldTimestamp: "2024-10-01",
		records.FieldSeason:    "Autumn",
	}}
	sales, st := Flatten(raw)
	if sales[0].Season != Fall || st.SeasonCorrected != 0 || st.SeasonDerived != 0 {
		t.Fatalf("season = %q stats = %+v", sales[0].Season, st)
	}
}

func TestSeasonOf(t *testing.T) {
	t.Parallel()

	want := map[time.Month]string{
		time.December: Winter, time.January: Winter, time.February: Winter,
		time.March: Spring, time.April: Spring, time.May: Spring,
		time.June: Summer, time.July: Summer, time.August: Summer,
		time.September: Fall, time.October: Fall, time.November: Fall,
	}
	for m, s := range want {
		if got := SeasonOf(m); got != s {
			t.Fatalf("SeasonOf(%s) = %s, want %s", m, got, s)
		}
	}
}

func TestAllocate_SumsToTotal(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		n := 1 + rng.Intn(7)
		total := math.Round(rng.Float64()*100000) / 100
		items := make([]records.Item, n)
		weighted := rng.Intn(2) == 0
		for j := range items {
			items[j].ID = "p"
			if weighted {
				items[j].LineAmount = 0.01 + float64(rng.Intn(5000))/100
			}
		}
		shares, err := Allocate(total, items)
		if err != nil {
			t.Fatalf("Allocate(%v): %v", total, err)
		}
		sum := 0.0
		for _, s := range shares {
			if s < 0 {
				t.Fatalf("negative share %v for total %v", s, total)
			}
			sum += s
		}
		if math.Abs(sum-total) > 1e-6 {
			t.Fatalf("shares %v sum to %v, want %v", shares, sum, total)
		}
	}
}

func TestAllocate_EvenSplitSpread(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total float64
		n     int
	}{
		{0.05, 10},
		{1.00, 7},
		{0.01, 4},
		{99.99, 13},
		{10, 3},
	}
	for _, tc := range tests {
		shares, err := Allocate(tc.total, named(make([]string, tc.n)...))
		if err != nil {
			t.Fatalf("Allocate(%v, %d): %v", tc.total, tc.n, err)
		}
		lo, hi, sum := math.Inf(1), math.Inf(-1), 0.0
		for _, s := range shares {
			lo, hi = math.Min(lo, s), math.Max(hi, s)
			sum += s
		}
		if hi-lo > 0.01+1e-9 {
			t.Fatalf("Allocate(%v, %d) = %v, spread %v > 0.01", tc.total, tc.n, shares, hi-lo)
		}
		if math.Abs(sum-tc.total) > 1e-6 {
			t.Fatalf("Allocate(%v, %d) sums to %v", tc.total, tc.n, sum)
		}
	}
}

func TestAllocate_Cases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		total float64
		items []records.Item
		want  []float64
	}{
		{"even thirds", 10, named("a", "b", "c"), []float64{3.34, 3.33, 3.33}},
		{"even halves", 10, named("a", "b"), []float64{5, 5}},
		{"zero", 0, named("a", "b"), []float64{0, 0}},
		{"tiny", 0.01, named("a", "b", "c"), []float64{0.01, 0, 0}},
		{"sevenths", 1, named("a", "b", "c", "d", "e", "f", "g"), []float64{0.15, 0.15, 0.14, 0.14, 0.14, 0.14, 0.14}},
		{"proportional remainder", 1, []records.Item{{ID: "a", LineAmount: 1}, {ID: "b", LineAmount: 1}, {ID: "c", LineAmount: 1}}, []float64{0.34, 0.33, 0.33}},
		{"proportional largest remainder", 1, []records.Item{{ID: "a", LineAmount: 1}, {ID: "b", LineAmount: 2}}, []float64{0.33, 0.67}},
		{"proportional", 12, []records.Item{{ID: "a", LineAmount: 1}, {ID: "b", LineAmount: 3}}, []float64{3, 9}},
		{"partially priced is even", 12, []records.Item{{ID: "a", LineAmount: 1}, {ID: "b"}}, []float64{6, 6}},
		{"none", 5, nil, nil},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Allocate(tc.total, tc.items)
			if err != nil {
				t.Fatalf("Allocate: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Allocate(%v) = %v, want %v", tc.total, got, tc.want)
			}
		})
	}
}

func TestAttributeColumns(t *testing.T) {
	t.Parallel()

	cols, numeric := AttributeColumns([]Sale{
		{Attributes: map[string]any{"store_id": "S1", "discount": 1.5}},
		{Attributes: map[string]any{"discount": 2.0, "payment_method": "Card"}},
		{Attributes: map[string]any{"discount": "n/a"}},
		{},
	})
	if !reflect.DeepEqual(cols, []string{"discount", "payment_method", "store_id"}) {
		t.Fatalf("cols = %v", cols)
	}
	if numeric["discount"] || numeric["store_id"] {
		t.Fatalf("numeric = %v", numeric)
	}

	_, numeric = AttributeColumns([]Sale{{Attributes: map[string]any{"discount": 1.5}}})
	if !numeric["discount"] {
		t.Fatalf("discount should be numeric")
	}
}
