package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"gocloud.dev/blob"

	"retailhub/internal/facts"
)

func openDir(t *testing.T) *blob.Bucket {
	t.Helper()
	b, err := OpenBucket(context.Background(), filepath.Join(t.TempDir(), "processed"))
	if err != nil {
		t.Fatalf("OpenBucket: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func sampleSales() []facts.Sale {
	return []facts.Sale{
		{TransactionID: "T1", DateKey: "2024-03-01", ProductKey: "Milk", Quantity: 1, TotalAmount: 5, City: "Boston", CustomerName: "Alice", Season: "Spring", SourceSystem: "POS"},
		{TransactionID: "T1", DateKey: "2024-03-01", ProductKey: "Bread", Quantity: 1, TotalAmount: 5, City: "Boston", CustomerName: "Alice", Season: "Spring", SourceSystem: "POS"},
		{TransactionID: "T2", DateKey: "2024-03-02", ProductKey: "Eggs", Quantity: 2, TotalAmount: 3.5, City: "New York", CustomerName: "Bob", Season: "Spring", SourceSystem: "WEB",
			Attributes: map[string]any{"payment_method": "card"}},
	}
}

func readManifest(t *testing.T, b *blob.Bucket, key string) Manifest {
	t.Helper()
	data, err := b.ReadAll(context.Background(), key)
	if err != nil {
		t.Fatalf("ReadAll(%s): %v", key, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	return m
}

func TestExportSales_PartitionsAndManifest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := openDir(t)
	e := New(b, Options{Job: "test"})

	m, err := e.ExportSales(ctx, sampleSales())
	if err != nil {
		t.Fatalf("ExportSales: %v", err)
	}
	if m.TotalRows != 3 || len(m.Partitions) != 2 {
		t.Fatalf("manifest = %+v, want 3 rows in 2 partitions", m)
	}
	if m.Partitions[0].City != "Boston" || m.Partitions[0].Key != "fact_sales/city=Boston/part-00000.parquet" {
		t.Fatalf("first partition = %+v", m.Partitions[0])
	}
	if m.Partitions[1].Key != "fact_sales/city=New%20York/part-00000.parquet" {
		t.Fatalf("escaped key = %q", m.Partitions[1].Key)
	}

	onDisk := readManifest(t, b, e.ManifestKey())
	if onDisk.TotalRows != 3 || onDisk.Job != "test" {
		t.Fatalf("stored manifest = %+v", onDisk)
	}

	for _, p := range m.Partitions {
		data, err := b.ReadAll(ctx, p.Key)
		if err != nil {
			t.Fatalf("ReadAll(%s): %v", p.Key, err)
		}
		if got := Checksum(data); got != p.Checksum {
			t.Fatalf("checksum(%s) = %s, manifest says %s", p.Key, got, p.Checksum)
		}
		rows, err := parquet.Read[Row](bytes.NewReader(data), int64(len(data)))
		if err != nil {
			t.Fatalf("parquet.Read(%s): %v", p.Key, err)
		}
		if int64(len(rows)) != p.Rows {
			t.Fatalf("%s rows = %d, want %d", p.Key, len(rows), p.Rows)
		}
		for _, r := range rows {
			if r.City != p.City {
				t.Fatalf("row city %q in partition %q", r.City, p.City)
			}
		}
	}
}

func TestExportSales_ReplacesPreviousExport(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := openDir(t)
	e := New(b, Options{Prefix: "warehouse"})

	if _, err := e.ExportSales(ctx, sampleSales()); err != nil {
		t.Fatalf("first ExportSales: %v", err)
	}
	if _, err := e.ExportSales(ctx, sampleSales()[:1]); err != nil {
		t.Fatalf("second ExportSales: %v", err)
	}

	exists, err := b.Exists(ctx, e.PartitionKey("New York"))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Fatalf("stale New York partition survived a rebuild")
	}
	if m := readManifest(t, b, "warehouse/fact_sales/_manifest.json"); m.TotalRows != 1 {
		t.Fatalf("manifest rows = %d, want 1", m.TotalRows)
	}
}

func TestExportSales_FailureRemovesPartitionsAndManifest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := openDir(t)
	e := New(b, Options{Concurrency: 1})
	boom := errors.New("disk full")
	e.put = func(ctx context.Context, key string, data []byte) error {
		if strings.Contains(key, "New%20York") {
			return boom
		}
		return b.WriteAll(ctx, key, data, nil)
	}

	_, err := e.ExportSales(ctx, sampleSales())
	if !errors.Is(err, ErrExport) || !errors.Is(err, boom) {
		t.Fatalf("ExportSales err = %v, want ErrExport wrapping boom", err)
	}
	for _, key := range []string{e.PartitionKey("Boston"), e.ManifestKey()} {
		ok, err := b.Exists(ctx, key)
		if err != nil {
			t.Fatalf("Exists(%s): %v", key, err)
		}
		if ok {
			t.Fatalf("%s exists after failed export", key)
		}
	}
}

func TestExportSales_Empty(t *testing.T) {
	t.Parallel()

	b := openDir(t)
	m, err := New(b, Options{}).ExportSales(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportSales(nil): %v", err)
	}
	if m.TotalRows != 0 || len(m.Partitions) != 0 {
		t.Fatalf("manifest = %+v", m)
	}
}
