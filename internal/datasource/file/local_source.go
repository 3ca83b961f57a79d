// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Local opens a file from the local disk. Files ending in .gz or .zst are
// decompressed transparently.
type Local struct{ path string }

// NewLocal returns a Local data source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open returns the (decompressed) file contents. A canceled context is
// reported before touching the filesystem. Filesystem errors are wrapped
// with the path and still match errors.Is(err, os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}

	switch {
	case strings.HasSuffix(l.path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("gzip %s: %w", l.path, err)
		}
		return &stacked{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(l.path, ".zst"):
		dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("zstd %s: %w", l.path, err)
		}
		rc := dec.IOReadCloser()
		return &stacked{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	return f, nil
}

// stacked closes a decompressor and the file beneath it.
type stacked struct {
	io.Reader
	closers []io.Closer
}

func (s *stacked) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
