package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"unicode/utf8"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "retailhub.yaml", `
job: nightly
sources:
  - name: pos
    kind: csv
    source_system: POS
    file: { path: data/raw/pos.csv }
    options:
      comma: ";"
      header_map: { product: items }
      drop_columns: [total_items]
  - name: web
    kind: json
    file: { path: data/raw/web.json }
storage:
  kind: sqlite
  db: { dsn: /tmp/w.db }
generator:
  seed: 7
runtime:
  as_of: "2024-03-01"
`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Job != "nightly" {
		t.Fatalf("job = %q, want nightly", p.Job)
	}
	if len(p.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(p.Sources))
	}
	pos := p.Sources[0]
	if pos.Kind != "csv" || pos.File.Path != "data/raw/pos.csv" || pos.Tag() != "POS" {
		t.Fatalf("pos source decoded = %#v", pos)
	}
	if got := pos.Options.Rune("comma", ','); got != ';' {
		t.Fatalf("comma = %q, want ';'", got)
	}
	if got := pos.Options.StringMap("header_map"); !reflect.DeepEqual(got, map[string]string{"product": "items"}) {
		t.Fatalf("header_map = %#v", got)
	}
	if got := pos.Options.StringSlice("drop_columns"); !reflect.DeepEqual(got, []string{"total_items"}) {
		t.Fatalf("drop_columns = %#v", got)
	}
	if web := p.Sources[1]; web.Tag() != "WEB" || web.Options == nil {
		t.Fatalf("web source tag = %q options = %#v", web.Tag(), web.Options)
	}
	if p.Storage.DB.DSN != "/tmp/w.db" {
		t.Fatalf("dsn = %q", p.Storage.DB.DSN)
	}
	// Untouched sections keep their defaults.
	if p.Generator.Seed != 7 || p.Generator.ShipmentSample != 5000 || p.Generator.DelayCutoff != 5 {
		t.Fatalf("generator = %#v", p.Generator)
	}
	if p.Cleaning.Sentinel != "Unknown" || p.Cleaning.DedupKey != "transaction_id" || p.Cleaning.DedupPolicy != "keep-first" {
		t.Fatalf("cleaning = %#v", p.Cleaning)
	}
}

func TestLoad_JSON(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "pipeline.json", `{
	  "job": "j",
	  "sources": [{"name": "hist", "kind": "csv", "file": {"path": "h.csv"}}],
	  "export": {"enabled": false}
	}`)

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Export.Enabled {
		t.Fatalf("export.enabled = true, want false")
	}
	if p.Sources[0].Tag() != "HIST" {
		t.Fatalf("tag = %q, want HIST", p.Sources[0].Tag())
	}
	if p.Storage.Kind != "sqlite" {
		t.Fatalf("storage.kind = %q, want sqlite default", p.Storage.Kind)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeFile(t, "retailhub.yaml", "job: x\nstorage:\n  kind: sqlite\n  db:\n    dsn: a.db\n")
	t.Setenv("RETAILHUB_STORAGE_DB_DSN", "b.db")
	t.Setenv("RETAILHUB_GENERATOR_SHIPMENT_SAMPLE", "12")

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Storage.DB.DSN != "b.db" {
		t.Fatalf("dsn = %q, want env override b.db", p.Storage.DB.DSN)
	}
	if p.Generator.ShipmentSample != 12 {
		t.Fatalf("shipment_sample = %d, want 12", p.Generator.ShipmentSample)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("Load(missing) error = nil, want error")
	}
}

func TestOptions_String_Bool_Int_Rune_DefaultsAndCoercion(t *testing.T) {
	t.Parallel()

	o := Options{
		"s":  "hello",
		"b":  true,
		"i":  float64(42),
		"i2": 9,
		"r":  ",",
	}

	if got := o.String("s", "def"); got != "hello" {
		t.Fatalf("String(s) = %q, want hello", got)
	}
	if got := o.String("missing", "def"); got != "def" {
		t.Fatalf("String(missing) = %q, want def", got)
	}
	if got := o.Bool("b", false); got != true {
		t.Fatalf("Bool(b) = %v, want true", got)
	}
	if got := o.Int("i", 0); got != 42 {
		t.Fatalf("Int(i) = %d, want 42", got)
	}
	if got := o.Int("i2", 0); got != 9 {
		t.Fatalf("Int(i2) = %d, want 9", got)
	}
	if got := o.Int("missing", 7); got != 7 {
		t.Fatalf("Int(missing) = %d, want 7", got)
	}
	if got := o.Rune("r", ';'); got != ',' {
		t.Fatalf("Rune(r) = %q, want ','", got)
	}

	o["r2"] = "ž"
	r := o.Rune("r2", 'x')
	if !utf8.ValidRune(r) || string(r) != "ž" {
		t.Fatalf("Rune(r2) = %#U, want ž", r)
	}
}

func TestOptions_StringMap_StringSlice(t *testing.T) {
	t.Parallel()

	o := Options{
		"m":  map[string]any{"A": "a", "B": "b", "X": 1},
		"s1": []any{"alpha", "beta", 3},
		"s2": []string{"gamma", "delta"},
	}

	if sm := o.StringMap("m"); !reflect.DeepEqual(sm, map[string]string{"A": "a", "B": "b"}) {
		t.Fatalf("StringMap(m) = %#v, want {A:a B:b}", sm)
	}
	if sm := o.StringMap("missing"); sm == nil || len(sm) != 0 {
		t.Fatalf("StringMap(missing) = %#v, want empty map", sm)
	}
	if ss := o.StringSlice("s1"); !reflect.DeepEqual(ss, []string{"alpha", "beta"}) {
		t.Fatalf("StringSlice(s1) = %#v", ss)
	}
	if ss := o.StringSlice("s2"); !reflect.DeepEqual(ss, []string{"gamma", "delta"}) {
		t.Fatalf("StringSlice(s2) = %#v", ss)
	}
	if got := o.StringSlice("missing"); got != nil {
		t.Fatalf("StringSlice(missing) = %#v, want nil", got)
	}
}

func TestOptions_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		Opts Options `json:"options"`
	}

	for _, js := range []string{`{"options": null}`, `{}`} {
		var w wrapper
		if err := json.Unmarshal([]byte(js), &w); err != nil {
			t.Fatalf("unmarshal %s: %v", js, err)
		}
		// A missing key never calls UnmarshalJSON; only null yields {}.
		if js == `{"options": null}` && (w.Opts == nil || len(w.Opts) != 0) {
			t.Fatalf("Opts after %s = %#v, want empty map", js, w.Opts)
		}
	}

	var w wrapper
	if err := json.Unmarshal([]byte(`{"options": {"a":"x","b":true,"n": 3}}`), &w); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if w.Opts.String("a", "") != "x" || !w.Opts.Bool("b", false) || w.Opts.Int("n", 0) != 3 {
		t.Fatalf("Opts = %#v", w.Opts)
	}
}
