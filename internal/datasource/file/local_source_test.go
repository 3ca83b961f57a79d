package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const payload = "transaction_id,total_amount\nT1,10.00\n"

func writeGzip(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(payload)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	p := filepath.Join(dir, "pos.csv.gz")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func writeZstd(t *testing.T, dir string) string {
	t.Helper()
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		t.Fatalf("zstd writer: %v", err)
	}
	data := enc.EncodeAll([]byte(payload), nil)
	_ = enc.Close()
	p := filepath.Join(dir, "pos.csv.zst")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

// TestLocalOpen covers plain, compressed, missing and canceled cases.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string
		makeCtx         func(t *testing.T) context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}

	background := func(t *testing.T) context.Context { return context.Background() }

	cases := []tc{
		{
			name: "plain_file",
			prepare: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "pos.csv")
				if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
					t.Fatalf("write test file: %v", err)
				}
				return p
			},
			makeCtx:     background,
			wantContent: payload,
		},
		{
			name:        "gzip_file",
			prepare:     func(t *testing.T) string { return writeGzip(t, t.TempDir()) },
			makeCtx:     background,
			wantContent: payload,
		},
		{
			name:        "zstd_file",
			prepare:     func(t *testing.T) string { return writeZstd(t, t.TempDir()) },
			makeCtx:     background,
			wantContent: payload,
		},
		{
			name: "corrupt_gzip",
			prepare: func(t *testing.T) string {
				p := filepath.Join(t.TempDir(), "bad.csv.gz")
				if err := os.WriteFile(p, []byte("not gzip"), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
				return p
			},
			makeCtx:         background,
			wantErrContains: "gzip ",
		},
		{
			name:            "missing_file_errors_with_wrapping",
			prepare:         func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			makeCtx:         background,
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "open ",
		},
		{
			name:    "pre_canceled_context_short_circuits",
			prepare: func(t *testing.T) string { return filepath.Join(t.TempDir(), "never-opened.csv") },
			makeCtx: func(t *testing.T) context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			rc, err := NewLocal(c.prepare(t)).Open(c.makeCtx(t))

			if c.wantErrIs != nil || c.wantErrContains != "" {
				if err == nil {
					_ = rc.Close()
					t.Fatalf("expected error, got nil")
				}
				if c.wantErrIs != nil && !errors.Is(err, c.wantErrIs) {
					t.Fatalf("errors.Is(%v, %v) = false", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("error %q does not contain substring %q", err, c.wantErrContains)
				}
				if rc != nil {
					t.Fatalf("got non-nil ReadCloser on error: %T", rc)
				}
				return
			}

			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer rc.Close()

			got, rerr := io.ReadAll(rc)
			if rerr != nil {
				t.Fatalf("reading: %v", rerr)
			}
			if string(got) != c.wantContent {
				t.Fatalf("content mismatch: got %q, want %q", string(got), c.wantContent)
			}
		})
	}
}

// BenchmarkLocalOpen_Gzip measures open plus full decompression of a small file.
func BenchmarkLocalOpen_Gzip(b *testing.B) {
	dir := b.TempDir()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(strings.Repeat(payload, 100)))
	_ = zw.Close()
	p := filepath.Join(dir, "pos.csv.gz")
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		b.Fatalf("write: %v", err)
	}

	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := io.Copy(io.Discard, rc); err != nil {
			b.Fatal(err)
		}
		_ = rc.Close()
	}
}
