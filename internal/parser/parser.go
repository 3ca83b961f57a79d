// Package parser holds the shared contract of the wire-format decoders.
package parser

import (
	"io"

	"retailhub/pkg/records"
)

// Parser decodes r into records. The int result counts rows that were
// skipped because they could not be decoded.
type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}
