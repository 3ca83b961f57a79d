// Package config defines the pipeline configuration model for a warehouse
// build and loads it from YAML or JSON files with environment overrides.
//
// Field names mirror the file layout under configs/:
//
//	job: retailhub
//	sources:
//	  - name: pos
//	    kind: csv
//	    source_system: POS
//	    file: { path: data/raw/pos_transactions.csv }
//	storage:
//	  kind: sqlite
//	  db: { dsn: data/warehouse.db }
//	export:
//	  url: data/processed
//
// Any scalar key can be overridden from the environment using the RETAILHUB_
// prefix, dots replaced by underscores (RETAILHUB_STORAGE_DB_DSN).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides.
const EnvPrefix = "RETAILHUB"

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines for the run.
	Job string `mapstructure:"job" json:"job" yaml:"job"`

	// Sources are read in declaration order; their records are merged in the
	// same order before dimension building.
	Sources []Source `mapstructure:"sources" json:"sources" yaml:"sources"`

	// ProductMaster optionally names a CSV with product_id,name,category
	// rows that override the default product dimension attributes.
	ProductMaster SourceFile `mapstructure:"product_master" json:"product_master" yaml:"product_master"`

	Cleaning  Cleaning      `mapstructure:"cleaning" json:"cleaning" yaml:"cleaning"`
	Generator Generator     `mapstructure:"generator" json:"generator" yaml:"generator"`
	Storage   Storage       `mapstructure:"storage" json:"storage" yaml:"storage"`
	Export    Export        `mapstructure:"export" json:"export" yaml:"export"`
	Metrics   Metrics       `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Runtime   RuntimeConfig `mapstructure:"runtime" json:"runtime" yaml:"runtime"`
}

// Source declares one raw input.
type Source struct {
	// Name identifies the source in logs and summaries (e.g. "pos").
	Name string `mapstructure:"name" json:"name" yaml:"name"`

	// Kind selects the reader: "csv" for tabular extracts, "json" for nested
	// order feeds.
	Kind string `mapstructure:"kind" json:"kind" yaml:"kind"`

	// SourceSystem is the tag stamped on every fact from this source. When
	// empty the upper-cased Name is used.
	SourceSystem string `mapstructure:"source_system" json:"source_system" yaml:"source_system"`

	File SourceFile `mapstructure:"file" json:"file" yaml:"file"`

	// Options is interpreted by the reader. Recognized keys:
	//   csv:  comma (string), header_map (object), drop_columns (array)
	//   json: allow_arrays (bool)
	Options Options `mapstructure:"options" json:"options" yaml:"options"`
}

// Tag returns the source-system tag for facts from this source.
func (s Source) Tag() string {
	if t := strings.TrimSpace(s.SourceSystem); t != "" {
		return t
	}
	return strings.ToUpper(strings.TrimSpace(s.Name))
}

// SourceFile holds a local filesystem path. Paths ending in .gz or .zst are
// decompressed on read.
type SourceFile struct {
	Path string `mapstructure:"path" json:"path" yaml:"path"`
}

// Cleaning configures the data-quality rules.
type Cleaning struct {
	// Sentinel replaces missing text values.
	Sentinel string `mapstructure:"sentinel" json:"sentinel" yaml:"sentinel"`

	// DedupKey is the field duplicates are detected on.
	DedupKey string `mapstructure:"dedup_key" json:"dedup_key" yaml:"dedup_key"`

	// DedupPolicy picks the surviving duplicate: keep-first, keep-last or
	// most-complete.
	DedupPolicy string `mapstructure:"dedup_policy" json:"dedup_policy" yaml:"dedup_policy"`
}

// Generator configures the synthetic inventory and shipment facts.
type Generator struct {
	Seed           uint64 `mapstructure:"seed" json:"seed" yaml:"seed"`
	ShipmentSample int    `mapstructure:"shipment_sample" json:"shipment_sample" yaml:"shipment_sample"`
	// DelayCutoff is the delivery duration (days) at or above which a
	// shipment is "Delayed".
	DelayCutoff int `mapstructure:"delay_cutoff" json:"delay_cutoff" yaml:"delay_cutoff"`
}

// Storage selects the relational destination.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres" or "mssql".
	Kind string   `mapstructure:"kind" json:"kind" yaml:"kind"`
	DB   DBConfig `mapstructure:"db" json:"db" yaml:"db"`
}

// DBConfig configures the relational connection.
type DBConfig struct {
	// DSN is the driver connection string (file path for sqlite).
	DSN string `mapstructure:"dsn" json:"dsn" yaml:"dsn"`
}

// Export configures the columnar Sales export.
type Export struct {
	Enabled bool `mapstructure:"enabled" json:"enabled" yaml:"enabled"`

	// URL is a local directory or a gocloud.dev bucket URL (file://, s3://,
	// gs://).
	URL string `mapstructure:"url" json:"url" yaml:"url"`

	// Prefix is prepended to every object key inside the bucket.
	Prefix string `mapstructure:"prefix" json:"prefix" yaml:"prefix"`

	// Concurrency bounds the number of partitions written at once.
	Concurrency int `mapstructure:"concurrency" json:"concurrency" yaml:"concurrency"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend        string `mapstructure:"backend" json:"backend" yaml:"backend"`
	PushgatewayURL string `mapstructure:"pushgateway_url" json:"pushgateway_url" yaml:"pushgateway_url"`
	// StatsdAddr is the DogStatsD agent address for the datadog backend.
	StatsdAddr string `mapstructure:"statsd_addr" json:"statsd_addr" yaml:"statsd_addr"`
}

// RuntimeConfig controls run-wide behavior.
type RuntimeConfig struct {
	// AsOf is the run date (YYYY-MM-DD) used to close customer versions.
	// Empty means today.
	AsOf string `mapstructure:"as_of" json:"as_of" yaml:"as_of"`

	// PreserveCustomerHistory reads Dim_Customer before the rebuild and seeds
	// the SCD builder with it, so city changes are detected across runs.
	PreserveCustomerHistory bool `mapstructure:"preserve_customer_history" json:"preserve_customer_history" yaml:"preserve_customer_history"`

	LogLevel string `mapstructure:"log_level" json:"log_level" yaml:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json" yaml:"log_json"`
}

// Default returns a Pipeline with default values and no sources.
func Default() *Pipeline {
	return &Pipeline{
		Job: "retailhub",
		Cleaning: Cleaning{
			Sentinel: "Unknown",
			DedupKey:    "transaction_id",
			DedupPolicy: "keep-first",
		},
		Generator: Generator{
			Seed:           42,
			ShipmentSample: 5000,
			DelayCutoff:    5,
		},
		Storage: Storage{
			Kind: "sqlite",
			DB:   DBConfig{DSN: filepath.Join("data", "warehouse.db")},
		},
		Export: Export{
			Enabled:     true,
			URL:         filepath.Join("data", "processed"),
			Concurrency: 4,
		},
		Metrics: Metrics{
			Backend:        "none",
			PushgatewayURL: "http://localhost:9091",
			StatsdAddr:     "127.0.0.1:8125",
		},
		Runtime: RuntimeConfig{
			LogLevel: "info",
		},
	}
}

// Load reads a pipeline file. When path is empty, retailhub.yaml (or .json)
// is searched in the working directory and ./configs. A missing file is not
// an error in that case; defaults and environment values are used.
func Load(path string) (*Pipeline, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("retailhub")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	p := Default()
	if err := v.Unmarshal(p); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	for i := range p.Sources {
		if p.Sources[i].Options == nil {
			p.Sources[i].Options = Options{}
		}
	}
	return p, nil
}

// setDefaults registers every scalar key so AutomaticEnv can override it
// during Unmarshal.
func setDefaults(v *viper.Viper, d *Pipeline) {
	v.SetDefault("job", d.Job)
	v.SetDefault("product_master.path", d.ProductMaster.Path)
	v.SetDefault("cleaning.sentinel", d.Cleaning.Sentinel)
	v.SetDefault("cleaning.dedup_key", d.Cleaning.DedupKey)
	v.SetDefault("cleaning.dedup_policy", d.Cleaning.DedupPolicy)
	v.SetDefault("generator.seed", d.Generator.Seed)
	v.SetDefault("generator.shipment_sample", d.Generator.ShipmentSample)
	v.SetDefault("generator.delay_cutoff", d.Generator.DelayCutoff)
	v.SetDefault("storage.kind", d.Storage.Kind)
	v.SetDefault("storage.db.dsn", d.Storage.DB.DSN)
	v.SetDefault("export.enabled", d.Export.Enabled)
	v.SetDefault("export.url", d.Export.URL)
	v.SetDefault("export.prefix", d.Export.Prefix)
	v.SetDefault("export.concurrency", d.Export.Concurrency)
	v.SetDefault("metrics.backend", d.Metrics.Backend)
	v.SetDefault("metrics.pushgateway_url", d.Metrics.PushgatewayURL)
	v.SetDefault("metrics.statsd_addr", d.Metrics.StatsdAddr)
	v.SetDefault("runtime.as_of", d.Runtime.AsOf)
	v.SetDefault("runtime.preserve_customer_history", d.Runtime.PreserveCustomerHistory)
	v.SetDefault("runtime.log_level", d.Runtime.LogLevel)
	v.SetDefault("runtime.log_json", d.Runtime.LogJSON)
}

// Options fetches typed values from a free-form options bag, returning the
// provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers arrive as float64,
// YAML numbers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case int64:
			return int(n)
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns the string-valued entries of an object value. The result
// is never nil.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	v, ok := o[key]
	if !ok {
		return res
	}
	switch m := v.(type) {
	case map[string]any:
		for k, vv := range m {
			if s, ok := vv.(string); ok {
				res[k] = s
			}
		}
	case map[string]string:
		for k, s := range m {
			res[k] = s
		}
	}
	return res
}

// StringSlice returns the string elements of an array value, or nil when
// the key is missing.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// UnmarshalJSON decodes a missing or null options object to an empty map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
