// Package metrics is a backend-agnostic facade for run metrics. It defaults
// to a no-op backend so call sites never need to check whether metrics are
// configured; concrete systems live in subpackages (see prompush).
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a duration-style value.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes collected metrics, if the backend needs it.
	Flush() error
}

// Metric names shared with backends.
const (
	StepTotal        = "retailhub_stage_total"
	StepDuration     = "retailhub_stage_duration_seconds"
	RecordsTotal     = "retailhub_records_total"
	TableLoadsTotal  = "retailhub_table_loads_total"
	TableRowsWritten = "retailhub_table_rows_total"
)

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Reset restores the no-op backend.
func Reset() { backend = nopBackend{} }

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep records one pipeline stage execution and its latency.
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status(err),
	}
	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter. Kinds mirror the run summary
// keys, e.g. "read", "duplicates_removed", "negative_dropped", "facts".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordTableLoad counts one table write and the rows it committed.
func RecordTableLoad(job, table string, rows int64, err error) {
	lbls := Labels{
		"job":    job,
		"table":  table,
		"status": status(err),
	}
	backend.IncCounter(TableLoadsTotal, 1, lbls)
	if err == nil && rows > 0 {
		backend.IncCounter(TableRowsWritten, float64(rows), Labels{"job": job, "table": table})
	}
}
