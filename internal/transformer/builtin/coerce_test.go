package builtin

import (
	"encoding/json"
	"reflect"
	"testing"

	"retailhub/pkg/records"
)

func TestCoerce_Types(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		typ  string
		in   any
		want any
		ok   bool
	}{
		{"float string", "float", "10.00", 10.0, true},
		{"float currency", "float", "$1,250.50", 1250.5, true},
		{"float json number", "float", json.Number("3.25"), 3.25, true},
		{"float from int", "float", 4, 4.0, true},
		{"float garbage", "float", "ten", nil, false},
		{"float nan", "float", "NaN", nil, false},
		{"int string", "int", " 42 ", 42, true},
		{"int from whole float", "int", 3.0, 3, true},
		{"int from fraction", "int", 3.5, 3, false},
		{"bool", "bool", "true", true, true},
		{"string from float", "string", 12.5, "12.5", true},
		{"string from json number", "string", json.Number("7"), "7", true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := coerceValue(tc.in, tc.typ)
			if ok != tc.ok {
				t.Fatalf("coerceValue(%#v, %s) ok = %v, want %v", tc.in, tc.typ, ok, tc.ok)
			}
			if ok && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("coerceValue(%#v, %s) = %#v, want %#v", tc.in, tc.typ, got, tc.want)
			}
		})
	}
}

func TestCoerce_StrictNullsFailures(t *testing.T) {
	t.Parallel()

	in := []records.Record{
		{records.FieldTotalAmount: "10.00"},
		{records.FieldTotalAmount: "n/a"},
		{records.FieldTotalAmount: nil},
		{},
	}
	c := &Coerce{Types: map[string]string{records.FieldTotalAmount: "float"}, Strict: true}
	out := c.Apply(in)

	if out[0][records.FieldTotalAmount] != 10.0 {
		t.Fatalf("row 0 = %#v", out[0])
	}
	if v, ok := out[1][records.FieldTotalAmount]; !ok || v != nil {
		t.Fatalf("row 1 = %#v, want nil total", out[1])
	}
	if _, ok := out[3][records.FieldTotalAmount]; ok {
		t.Fatalf("row 3 gained a total: %#v", out[3])
	}
	if c.Invalid != 1 {
		t.Fatalf("Invalid = %d, want 1", c.Invalid)
	}
}

func TestCoerce_LenientKeepsOriginal(t *testing.T) {
	t.Parallel()

	c := &Coerce{Types: map[string]string{"quantity": "int"}}
	out := c.Apply([]records.Record{{"quantity": "two"}})
	if out[0]["quantity"] != "two" || c.Invalid != 1 {
		t.Fatalf("out = %#v invalid = %d", out[0], c.Invalid)
	}
}
