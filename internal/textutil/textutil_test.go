package textutil

import "testing"

func TestFieldName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"Transaction ID", "transaction_id"},
		{"  Total-Cost ", "total_cost"},
		{"Customer.City", "customer_city"},
		{"Čas nákupu", "cas_nakupu"},
		{"__weird__  header!!", "weird_header"},
		{"Date", "date"},
		{"***", ""},
	}
	for _, c := range cases {
		c := c
		t.Run(c.in, func(t *testing.T) {
			t.Parallel()
			if got := FieldName(c.in); got != c.want {
				t.Fatalf("FieldName(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestFoldAccents(t *testing.T) {
	t.Parallel()

	if got := FoldAccents("Zürich São Paulo Kraków"); got != "Zurich Sao Paulo Krakow" {
		t.Fatalf("FoldAccents = %q", got)
	}
}

func TestLettersUpper(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Boston":      "BOSTON",
		"São Paulo":   "SAOPAULO",
		"St. Louis":   "STLOUIS",
		"42nd Street": "NDSTREET",
		"":            "",
	}
	for in, want := range cases {
		if got := LettersUpper(in); got != want {
			t.Fatalf("LettersUpper(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single word", "Milk", "Milk"},
		{"inner runs", "New\t \nYork", "New York"},
		{"edges", "  Boston  ", "Boston"},
		{"no-break space", "San Diego", "San Diego"},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if got := CollapseWhitespace(c.in); got != c.want {
				t.Fatalf("CollapseWhitespace(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func BenchmarkFieldName(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = FieldName("Customer Shipping City (Primary)")
	}
}
