package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retailhub/internal/logging"
	"retailhub/internal/metrics"
)

// CopyFn abstracts a backend's bulk insert. It must write all rows of one
// table in a single transaction.
type CopyFn func(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

// Table is one destination table and the rows to write into it.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

// TableResult reports the outcome of one table write.
type TableResult struct {
	Table   string
	Rows    int64
	Elapsed time.Duration
	Err     error
}

// Failed reports whether the write failed.
func (r TableResult) Failed() bool { return r.Err != nil }

// LoadTables writes each table with copyFn, in order. A failure marks that
// table failed and loading continues with the next one; cancellation stops
// the loop and marks the remaining tables failed.
//
// Progress is logged per table with rows/sec.
func LoadTables(ctx context.Context, job string, tables []Table, copyFn CopyFn) ([]TableResult, error) {
	if copyFn == nil {
		return nil, fmt.Errorf("copyFn must not be nil")
	}

	results := make([]TableResult, 0, len(tables))
	start := time.Now()
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			results = append(results, TableResult{Table: t.Name, Err: fmt.Errorf("%w: %s: %w", ErrLoad, t.Name, err)})
			continue
		}

		res := loadOne(ctx, t, copyFn)
		metrics.RecordTableLoad(job, t.Name, res.Rows, res.Err)
		results = append(results, res)
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	logging.Info().
		Int("tables", len(tables)).
		Int("failed", len(FailedTables(results))).
		Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).
		Msg("load: done")
	return results, nil
}

func loadOne(ctx context.Context, t Table, copyFn CopyFn) TableResult {
	began := time.Now()
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			err := fmt.Errorf("%w: %s: row %d has %d values for %d columns", ErrLoad, t.Name, i, len(row), len(t.Columns))
			logging.Error().Str("table", t.Name).Err(err).Msg("load: table failed")
			return TableResult{Table: t.Name, Err: err}
		}
	}

	n, err := copyFn(ctx, t.Name, t.Columns, t.Rows)
	elapsed := time.Since(began)
	if err != nil {
		if !errors.Is(err, ErrLoad) {
			err = fmt.Errorf("%w: %s: %w", ErrLoad, t.Name, err)
		}
		logging.Error().Str("table", t.Name).Int("rows", len(t.Rows)).Err(err).Msg("load: table failed")
		// A failed transaction commits nothing.
		return TableResult{Table: t.Name, Elapsed: elapsed, Err: err}
	}

	rps := float64(0)
	if elapsed > 0 {
		rps = float64(n) / elapsed.Seconds()
	}
	logging.Info().
		Str("table", t.Name).
		Int64("rows", n).
		Str("rps", fmt.Sprintf("%.0f", rps)).
		Dur("elapsed", elapsed.Truncate(time.Millisecond)).
		Msg("load: table committed")
	return TableResult{Table: t.Name, Rows: n, Elapsed: elapsed}
}

// FailedTables returns the names of failed tables in load order.
func FailedTables(results []TableResult) []string {
	var out []string
	for _, r := range results {
		if r.Failed() {
			out = append(out, r.Table)
		}
	}
	return out
}
