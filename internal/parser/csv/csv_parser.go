// Package csv turns delimited extracts into records.Record rows keyed by
// canonical snake_case field names.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"retailhub/internal/config"
	"retailhub/internal/logging"
	"retailhub/internal/parser"
	"retailhub/internal/textutil"
	"retailhub/pkg/records"
)

// Options configures the CSV parser. Zero values pick the defaults noted on
// each field.
type Options struct {
	// HasHeader indicates whether the first row contains column headers.
	HasHeader bool

	// Comma is the field delimiter. ',' when zero.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each value.
	TrimSpace bool

	// ExpectedFields, when > 0 and there is no header, names columns col_0..
	// and enforces that width.
	ExpectedFields int

	// HeaderMap renames normalized headers (e.g. "total_cost" ->
	// "total_amount"). Keys are normalized the same way headers are, so
	// "Total Cost" and "total_cost" are equivalent.
	HeaderMap map[string]string

	// DropColumns lists normalized header names that never reach a record.
	DropColumns []string

	// MaxLoggedSkips caps how many skipped rows are logged individually.
	// 400 when zero.
	MaxLoggedSkips int
}

// DefaultHeaderMap maps the header spellings seen across retail extracts to
// the canonical record fields.
func DefaultHeaderMap() map[string]string {
	return map[string]string{
		"date":             records.FieldTimestamp,
		"transaction_date": records.FieldTimestamp,
		"order_date":       records.FieldTimestamp,
		"product":          records.FieldItems,
		"products":         records.FieldItems,
		"total_cost":       records.FieldTotalAmount,
		"order_id":         records.FieldTransactionID,
		"customer_city":    records.FieldCity,
		"customer":         records.FieldCustomerName,
	}
}

// Parser parses CSV input according to Options. It is not safe for
// concurrent use.
type Parser struct{ opt Options }

var _ parser.Parser = (*Parser)(nil)

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

const utf8BOM = "\uFEFF"

// ErrNoHeader is returned when HasHeader is set and the input is empty.
var ErrNoHeader = errors.New("csv: missing header row")

// Parse reads every row of r. Rows that fail to decode or have the wrong
// width are skipped and counted; they never fail the batch.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced below so a bad row is skipped rather than fatal.
	cr.FieldsPerRecord = -1

	var headers []string
	if p.opt.HasHeader {
		h, err := cr.Read()
		if err == io.EOF {
			return nil, 0, ErrNoHeader
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv header: %w", err)
		}
		headers = normalizeHeaders(h, p.opt)
	} else if p.opt.ExpectedFields > 0 {
		headers = make([]string, p.opt.ExpectedFields)
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
	}

	drop := make(map[string]bool, len(p.opt.DropColumns))
	for _, c := range p.opt.DropColumns {
		drop[textutil.FieldName(c)] = true
	}

	limit := p.opt.MaxLoggedSkips
	if limit <= 0 {
		limit = 400
	}

	var (
		out     []records.Record
		skipped int
	)
	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipped < limit {
				logging.Warn().Int("row", line).Err(err).Msg("csv: skipping row")
			}
			skipped++
			continue
		}
		if len(headers) > 0 && len(row) != len(headers) {
			if skipped < limit {
				logging.Warn().Int("row", line).Int("want", len(headers)).Int("got", len(row)).
					Msg("csv: skipping row with wrong field count")
			}
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			key := keyFor(i, headers)
			if drop[key] {
				continue
			}
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[key] = emptyToNil(val)
		}
		out = append(out, rec)
	}

	return out, skipped, nil
}

// keyFor returns the column key for idx, synthesizing "col_N" when the header
// is missing or normalized to nothing.
func keyFor(idx int, headers []string) string {
	if idx < len(headers) && headers[idx] != "" {
		return headers[idx]
	}
	return fmt.Sprintf("col_%d", idx)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// normalizeHeaders strips a BOM from the first cell, snake_cases every
// header and then applies HeaderMap.
func normalizeHeaders(h []string, opt Options) []string {
	mapping := make(map[string]string, len(opt.HeaderMap))
	for from, to := range opt.HeaderMap {
		mapping[textutil.FieldName(from)] = to
	}

	res := make([]string, len(h))
	for i, col := range h {
		if i == 0 {
			col = strings.TrimPrefix(col, utf8BOM)
		}
		c := textutil.FieldName(col)
		if m, ok := mapping[c]; ok {
			c = m
		}
		res[i] = c
	}
	return res
}

// FromConfigOptions builds Options from a source's config options. Headers
// are expected and trimmed unless turned off; header_map entries extend
// DefaultHeaderMap; drop_columns defaults to ["total_items"].
func FromConfigOptions(o config.Options) Options {
	hm := DefaultHeaderMap()
	for k, v := range o.StringMap("header_map") {
		hm[textutil.FieldName(k)] = v
	}
	drop := o.StringSlice("drop_columns")
	if _, set := o["drop_columns"]; !set {
		drop = []string{"total_items"}
	}
	return Options{
		HasHeader:      o.Bool("has_header", true),
		Comma:          o.Rune("comma", ','),
		TrimSpace:      o.Bool("trim_space", true),
		ExpectedFields: o.Int("expected_fields", 0),
		HeaderMap:      hm,
		DropColumns:    drop,
	}
}
