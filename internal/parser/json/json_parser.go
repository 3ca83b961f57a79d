// Package json turns JSON order feeds into records.Record maps.
//
// Accepted layouts:
//
//   - a single top-level array of objects (when AllowArrays is set),
//   - newline-delimited objects:
//     {"order_id":"W1", ...}
//     {"order_id":"W2", ...}
//   - a root object or array followed by more NDJSON objects.
//
// Numbers are decoded as json.Number; callers decide how to map them.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"retailhub/internal/config"
	"retailhub/internal/parser"
	"retailhub/pkg/records"
)

// Options mirrors the csv package's Options.
//
//   - "allow_arrays" (bool): a top-level JSON array of objects is expanded
//     into records. Defaults to true for order feeds.
type Options struct {
	AllowArrays bool
}

// FromConfigOptions constructs Options from a source's config options.
func FromConfigOptions(o config.Options) Options {
	return Options{
		AllowArrays: o.Bool("allow_arrays", true),
	}
}

// Decoder wraps encoding/json.Decoder with a record-at-a-time API.
type Decoder struct {
	dec *json.Decoder
	opt Options
}

// NewDecoder constructs a Decoder reading from r.
func NewDecoder(r io.Reader, opt Options) *Decoder {
	d := json.NewDecoder(r)
	d.UseNumber()
	return &Decoder{dec: d, opt: opt}
}

// Next returns the next top-level object. Non-object values are skipped;
// io.EOF is returned when the stream is exhausted.
func (d *Decoder) Next() (records.Record, error) {
	for {
		var raw any
		if err := d.dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("json parser: decode: %w", err)
		}
		if m, ok := raw.(map[string]any); ok {
			return records.Record(m), nil
		}
	}
}

// DecodeAll reads every object from r.
//
// If opt.AllowArrays is true and the first value is an array of objects, it
// is expanded into records. Anything after the first value is read as NDJSON.
func DecodeAll(r io.Reader, opt Options) ([]records.Record, error) {
	d := json.NewDecoder(r)
	d.UseNumber()

	var root any
	if err := d.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("json parser: decode root: %w", err)
	}

	var out []records.Record
	switch v := root.(type) {
	case map[string]any:
		out = append(out, records.Record(v))

	case []any:
		if !opt.AllowArrays {
			return nil, fmt.Errorf("json parser: top-level array encountered but allow_arrays=false")
		}
		for i, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json parser: element %d in array is not an object", i)
			}
			out = append(out, records.Record(obj))
		}

	default:
		return nil, fmt.Errorf("json parser: unsupported top-level JSON type %T", v)
	}

	// The decoder may have buffered part of the stream already.
	rest := NewDecoder(io.MultiReader(d.Buffered(), r), opt)
	for {
		rec, err := rest.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		out = append(out, rec)
	}

	return out, nil
}

// Parser adapts DecodeAll to parser.Parser.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse decodes all of r. A JSON document is a single unit, so nothing is
// ever counted as skipped; a syntax error fails the whole parse.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	recs, err := DecodeAll(r, p.opt)
	return recs, 0, err
}
