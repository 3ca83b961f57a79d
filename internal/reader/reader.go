// Package reader loads each declared source into canonical raw records.
//
// Tabular extracts and nested order feeds both end up as one record per
// transaction with the item list already decoded into []records.Item.
package reader

import (
	"context"
	"errors"
	"fmt"

	"retailhub/internal/config"
	"retailhub/internal/datasource"
	"retailhub/internal/datasource/file"
	"retailhub/internal/logging"
	"retailhub/internal/parser"
	pcsv "retailhub/internal/parser/csv"
	pjson "retailhub/internal/parser/json"
	"retailhub/internal/transformer"
	"retailhub/internal/transformer/builtin"
	"retailhub/pkg/records"
)

var (
	// ErrSourceUnavailable means the source could not be opened or decoded
	// as a whole. The run skips it.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrRecordMalformed means a single row could not be decoded. The row
	// is dropped and counted.
	ErrRecordMalformed = errors.New("record malformed")
)

// maxLoggedMalformed caps per-source row warnings.
const maxLoggedMalformed = 20

// Result is one source's records plus what was dropped on the way.
type Result struct {
	Source  string
	Tag     string
	Records []records.Record

	// Skipped counts rows the wire decoder could not read (e.g. wrong CSV
	// width). Malformed counts decoded rows whose fields were unusable.
	Skipped   int
	Malformed int

	// BadTotals counts totals that were present but not numeric; they are
	// left missing for the cleaning rules to repair.
	BadTotals int
}

// Dropped is Skipped plus Malformed.
func (r Result) Dropped() int { return r.Skipped + r.Malformed }

// Read opens and decodes src. Any failure to open or decode the source as a
// whole is returned wrapped in ErrSourceUnavailable.
func Read(ctx context.Context, src config.Source) (Result, error) {
	return ReadFrom(ctx, src, file.NewLocal(src.File.Path))
}

// ReadFrom is Read with an explicit byte source.
func ReadFrom(ctx context.Context, src config.Source, ds datasource.Source) (Result, error) {
	res := Result{Source: src.Name, Tag: src.Tag()}

	p, shape, err := parserFor(src)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, src.Name, err)
	}

	rc, err := ds.Open(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, src.Name, err)
	}
	defer rc.Close()

	raw, skipped, err := p.Parse(rc)
	if err != nil {
		return res, fmt.Errorf("%w: %s: %w", ErrSourceUnavailable, src.Name, err)
	}
	res.Skipped = skipped

	out := make([]records.Record, 0, len(raw))
	for i, r := range raw {
		rec, err := shape(r)
		if err != nil {
			if res.Malformed < maxLoggedMalformed {
				logging.Warn().Str("source", src.Name).Int("row", i+1).Err(err).Msg("read: dropping row")
			}
			res.Malformed++
			continue
		}
		rec[records.FieldSourceSystem] = res.Tag
		out = append(out, rec)
	}
	coerce := &builtin.Coerce{Types: map[string]string{records.FieldTotalAmount: "float"}, Strict: true}
	res.Records = transformer.Chain{
		builtin.Normalize{NullTokens: builtin.DefaultNullTokens, Skip: []string{records.FieldItems}},
		coerce,
	}.Apply(out)
	res.BadTotals = coerce.Invalid

	logging.Info().
		Str("source", src.Name).
		Str("tag", res.Tag).
		Int("records", len(res.Records)).
		Int("skipped", res.Skipped).
		Int("malformed", res.Malformed).
		Int("bad_totals", res.BadTotals).
		Msg("read: source loaded")
	return res, nil
}

// shapeFunc turns one decoded row into a canonical record, or fails with
// ErrRecordMalformed.
type shapeFunc func(records.Record) (records.Record, error)

func parserFor(src config.Source) (parser.Parser, shapeFunc, error) {
	switch src.Kind {
	case "csv":
		return pcsv.NewParser(pcsv.FromConfigOptions(src.Options)), shapeTabular, nil
	case "json":
		return pjson.NewParser(pjson.FromConfigOptions(src.Options)), shapeOrder, nil
	default:
		return nil, nil, fmt.Errorf("unsupported source kind %q", src.Kind)
	}
}
