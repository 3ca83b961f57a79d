// Package datasource defines how raw source bytes are obtained.
package datasource

import (
	"context"
	"io"
)

// Source opens a raw input stream. Implementations return an error wrapping
// os.ErrNotExist when the input is absent so callers can skip it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
