// Package cleaning applies the data-quality rules to one source batch:
// de-duplication, missing-value repair and negative-total rejection, in that
// order.
package cleaning

import (
	"errors"
	"fmt"

	"retailhub/internal/transformer"
	"retailhub/internal/transformer/builtin"
	"retailhub/pkg/records"
)

// ErrDataQuality marks rows dropped or repaired by a cleaning rule.
var ErrDataQuality = errors.New("data quality violation")

// Options configures Clean.
type Options struct {
	// DedupKey is the field duplicates are detected on.
	DedupKey string
	// Sentinel fills missing text values.
	Sentinel string
	// DedupPolicy picks the surviving duplicate; empty means keep-first.
	DedupPolicy string
}

// DefaultOptions returns keep-first transaction_id de-duplication and an
// "Unknown" sentinel.
func DefaultOptions() Options {
	return Options{DedupKey: records.FieldTransactionID, Sentinel: "Unknown", DedupPolicy: "keep-first"}
}

// Report counts what Clean changed.
type Report struct {
	Input             int
	DuplicatesRemoved int
	ColumnsRepaired   int
	CellsRepaired     map[string]int
	NegativeDropped   int
	Output            int
}

// Dropped is the number of rows removed from the batch.
func (r Report) Dropped() int { return r.DuplicatesRemoved + r.NegativeDropped }

// Err returns a summary error wrapping ErrDataQuality when any row was
// dropped, or nil.
func (r Report) Err() error {
	if r.Dropped() == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d duplicate(s), %d negative total(s)", ErrDataQuality, r.DuplicatesRemoved, r.NegativeDropped)
}

// declaredKinds fixes the kind of canonical fields regardless of what the
// batch holds.
var declaredKinds = map[string]string{
	records.FieldTransactionID: builtin.KindText,
	records.FieldCustomerName:  builtin.KindText,
	records.FieldCity:          builtin.KindText,
	records.FieldPaymentMethod: builtin.KindText,
	records.FieldSourceSystem:  builtin.KindText,
	records.FieldTotalAmount:   builtin.KindNumeric,
}

// neverFilled carry downstream meaning when absent: an empty item list is
// skipped by the fact transformer, an unknown timestamp yields an "Unknown"
// date key and a missing season is derived from the date.
var neverFilled = []string{records.FieldItems, records.FieldTimestamp, records.FieldSeason}

// Clean applies the rules to batch and returns the surviving rows. It never
// fails. Records are modified in place.
func Clean(batch []records.Record, opt Options) ([]records.Record, Report) {
	if opt.DedupKey == "" {
		opt.DedupKey = records.FieldTransactionID
	}

	dedup := &builtin.DeDup{Keys: []string{opt.DedupKey}, Policy: opt.DedupPolicy, MissingAsEmpty: true}
	fill := &builtin.FillNA{Sentinel: opt.Sentinel, Kinds: declaredKinds, Skip: neverFilled}
	neg := &builtin.NonNegative{Field: records.FieldTotalAmount}

	rep := Report{Input: len(batch)}
	if len(batch) == 0 {
		rep.CellsRepaired = map[string]int{}
		return batch, rep
	}

	out := transformer.Chain{dedup, fill, neg}.Apply(batch)

	rep.DuplicatesRemoved = dedup.Removed
	rep.CellsRepaired = fill.Repaired
	rep.ColumnsRepaired = fill.ColumnsRepaired()
	rep.NegativeDropped = neg.Dropped
	rep.Output = len(out)
	return out, rep
}

// Merge adds o's counts into r.
func (r *Report) Merge(o Report) {
	r.Input += o.Input
	r.DuplicatesRemoved += o.DuplicatesRemoved
	r.ColumnsRepaired += o.ColumnsRepaired
	r.NegativeDropped += o.NegativeDropped
	r.Output += o.Output
	if r.CellsRepaired == nil {
		r.CellsRepaired = map[string]int{}
	}
	for k, v := range o.CellsRepaired {
		r.CellsRepaired[k] += v
	}
}
