// Package export writes the Sales fact as city-partitioned parquet files to
// a gocloud.dev bucket, followed by a manifest.
//
// Layout under the bucket:
//
//	<prefix>/fact_sales/city=<City>/part-00000.parquet
//	<prefix>/fact_sales/_manifest.json
//
// The manifest is written last and only when every partition succeeded, so
// its presence marks a complete export.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/zeebo/xxh3"
	"gocloud.dev/blob"
	"golang.org/x/sync/errgroup"

	"retailhub/internal/facts"
	"retailhub/internal/logging"
)

// ErrExport marks a failed export. No manifest is published.
var ErrExport = errors.New("export failed")

const (
	tableDir     = "fact_sales"
	partFile     = "part-00000.parquet"
	manifestFile = "_manifest.json"
)

// Row is one parquet row of the Sales fact.
type Row struct {
	TransactionID string            `parquet:"transaction_id"`
	DateKey       string            `parquet:"date_key"`
	ProductKey    string            `parquet:"product_key"`
	Quantity      int64             `parquet:"quantity"`
	TotalAmount   float64           `parquet:"total_amount"`
	City          string            `parquet:"city"`
	CustomerName  string            `parquet:"customer_name"`
	Season        string            `parquet:"season"`
	SourceSystem  string            `parquet:"source_system"`
	Attributes    map[string]string `parquet:"attributes"`
}

// Partition describes one written parquet object.
type Partition struct {
	City     string `json:"city"`
	Key      string `json:"key"`
	Rows     int64  `json:"row_count"`
	Bytes    int64  `json:"byte_size"`
	Checksum string `json:"checksum"`
}

// Manifest describes a complete export.
type Manifest struct {
	Table      string      `json:"table"`
	Job        string      `json:"job"`
	RunID      string      `json:"run_id,omitempty"`
	TotalRows  int64       `json:"total_rows"`
	Partitions []Partition `json:"partitions"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Options configures an Exporter.
type Options struct {
	// Prefix is prepended to every key.
	Prefix string
	// Concurrency bounds parallel partition writes. Zero means 4.
	Concurrency int
	// Job and RunID label the manifest.
	Job   string
	RunID string
}

// Exporter writes Sales partitions into one bucket.
type Exporter struct {
	bucket *blob.Bucket
	opt    Options
	now    func() time.Time
	put    func(ctx context.Context, key string, data []byte) error
}

// New returns an Exporter over bucket.
func New(bucket *blob.Bucket, opt Options) *Exporter {
	if opt.Concurrency <= 0 {
		opt.Concurrency = 4
	}
	e := &Exporter{bucket: bucket, opt: opt, now: time.Now}
	e.put = func(ctx context.Context, key string, data []byte) error {
		return e.bucket.WriteAll(ctx, key, data, nil)
	}
	return e
}

// Root returns the key prefix all Sales objects live under.
func (e *Exporter) Root() string {
	return path.Join(e.opt.Prefix, tableDir)
}

// ManifestKey returns the manifest's key.
func (e *Exporter) ManifestKey() string {
	return path.Join(e.Root(), manifestFile)
}

// PartitionKey returns the key of city's parquet object. The city is
// path-escaped.
func (e *Exporter) PartitionKey(city string) string {
	return path.Join(e.Root(), "city="+url.PathEscape(city), partFile)
}

// ExportSales replaces the previous export with one partition per city.
func (e *Exporter) ExportSales(ctx context.Context, sales []facts.Sale) (*Manifest, error) {
	start := time.Now()
	removed, err := e.clear(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: clear %s: %w", ErrExport, e.Root(), err)
	}

	groups := groupByCity(sales)
	cities := make([]string, 0, len(groups))
	for c := range groups {
		cities = append(cities, c)
	}
	sort.Strings(cities)

	var (
		mu      sync.Mutex
		written []string
		parts   = make([]Partition, len(cities))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opt.Concurrency)
	for i, city := range cities {
		g.Go(func() error {
			p, err := e.writePartition(gctx, city, groups[city])
			if err != nil {
				return fmt.Errorf("partition %q: %w", city, err)
			}
			mu.Lock()
			written = append(written, p.Key)
			mu.Unlock()
			parts[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.rollback(ctx, written)
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	m := &Manifest{Table: tableDir, Job: e.opt.Job, RunID: e.opt.RunID, Partitions: parts, CreatedAt: e.now().UTC()}
	for _, p := range parts {
		m.TotalRows += p.Rows
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		e.rollback(ctx, written)
		return nil, fmt.Errorf("%w: marshal manifest: %w", ErrExport, err)
	}
	if err := e.bucket.WriteAll(ctx, e.ManifestKey(), data, &blob.WriterOptions{ContentType: "application/json"}); err != nil {
		e.rollback(ctx, written)
		return nil, fmt.Errorf("%w: write manifest: %w", ErrExport, err)
	}

	logging.Info().
		Str("root", e.Root()).
		Int("partitions", len(parts)).
		Int64("rows", m.TotalRows).
		Int("replaced", removed).
		Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).
		Msg("export: done")
	return m, nil
}

func (e *Exporter) writePartition(ctx context.Context, city string, sales []facts.Sale) (Partition, error) {
	var buf bytes.Buffer
	w := parquet.NewGenericWriter[Row](&buf, parquet.Compression(&parquet.Zstd))
	rows := make([]Row, len(sales))
	for i, s := range sales {
		rows[i] = toRow(s)
	}
	if _, err := w.Write(rows); err != nil {
		return Partition{}, fmt.Errorf("encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return Partition{}, fmt.Errorf("encode: %w", err)
	}

	data := buf.Bytes()
	key := e.PartitionKey(city)
	if err := e.put(ctx, key, data); err != nil {
		return Partition{}, fmt.Errorf("write %s: %w", key, err)
	}
	return Partition{
		City:     city,
		Key:      key,
		Rows:     int64(len(rows)),
		Bytes:    int64(len(data)),
		Checksum: Checksum(data),
	}, nil
}

// clear deletes every object under the export root and returns how many
// were removed.
func (e *Exporter) clear(ctx context.Context) (int, error) {
	it := e.bucket.List(&blob.ListOptions{Prefix: e.Root() + "/"})
	var keys []string
	for {
		obj, err := it.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if !obj.IsDir {
			keys = append(keys, obj.Key)
		}
	}
	for _, k := range keys {
		if err := e.bucket.Delete(ctx, k); err != nil {
			return 0, fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return len(keys), nil
}

func (e *Exporter) rollback(ctx context.Context, keys []string) {
	// Cleanup must run even when ctx was canceled by the failure.
	ctx = context.WithoutCancel(ctx)
	for _, k := range keys {
		if err := e.bucket.Delete(ctx, k); err != nil {
			logging.Warn().Str("key", k).Err(err).Msg("export: rollback delete failed")
		}
	}
	logging.Warn().Int("removed", len(keys)).Msg("export: rolled back partial export")
}

// Checksum returns the manifest checksum of data.
func Checksum(data []byte) string {
	return fmt.Sprintf("xxh3:%016x", xxh3.Hash(data))
}

func groupByCity(sales []facts.Sale) map[string][]facts.Sale {
	out := map[string][]facts.Sale{}
	for _, s := range sales {
		out[s.City] = append(out[s.City], s)
	}
	return out
}

func toRow(s facts.Sale) Row {
	r := Row{
		TransactionID: s.TransactionID,
		DateKey:       s.DateKey,
		ProductKey:    s.ProductKey,
		Quantity:      int64(s.Quantity),
		TotalAmount:   s.TotalAmount,
		City:          s.City,
		CustomerName:  s.CustomerName,
		Season:        s.Season,
		SourceSystem:  s.SourceSystem,
	}
	if len(s.Attributes) > 0 {
		r.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			r.Attributes[k] = fmt.Sprint(v)
		}
	}
	return r
}
