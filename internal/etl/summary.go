package etl

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"retailhub/internal/cleaning"
	"retailhub/internal/dimension"
	"retailhub/internal/export"
	"retailhub/internal/facts"
	"retailhub/internal/logging"
	"retailhub/internal/storage"
)

// SourceSummary is the read outcome of one configured source.
type SourceSummary struct {
	Name      string
	Tag       string
	Records   int
	Skipped   int
	Malformed int
	BadTotals int
	// Err is set when the source was unavailable and contributed nothing.
	Err error
}

// Summary accounts for every row a run read, dropped, repaired and wrote.
type Summary struct {
	// RunID identifies the run in logs and the export manifest.
	RunID    string
	Job      string
	AsOf     string
	State    State
	Started  time.Time
	Finished time.Time

	Sources   []SourceSummary
	Products  int // product master entries
	Cleaning  cleaning.Report
	Flatten   facts.FlattenStats
	Customers dimension.CustomerStats

	StoreCollisions int
	// HistoryRows is the number of Dim_Customer rows carried over from the
	// previous run.
	HistoryRows int

	// Row counts handed to the loader, keyed by table.
	Rows map[string]int

	EvolvedColumns []string
	Tables         []storage.TableResult

	Export    *export.Manifest
	ExportErr error
}

func newSummary(job, asOf string, now time.Time) *Summary {
	return &Summary{RunID: uuid.NewString(), Job: job, AsOf: asOf, State: StateIdle, Started: now, Rows: map[string]int{}}
}

// FailedSources returns the names of sources that contributed nothing.
func (s *Summary) FailedSources() []string {
	var out []string
	for _, src := range s.Sources {
		if src.Err != nil {
			out = append(out, src.Name)
		}
	}
	return out
}

// FailedTables returns the tables whose load was rolled back.
func (s *Summary) FailedTables() []string { return storage.FailedTables(s.Tables) }

// RowsLoaded sums the rows committed across all tables.
func (s *Summary) RowsLoaded() int64 {
	var n int64
	for _, t := range s.Tables {
		if !t.Failed() {
			n += t.Rows
		}
	}
	return n
}

// Metric is one ETL_Run_Summary row.
type Metric struct {
	Name  string
	Value float64
}

// Metrics flattens the summary into name/value pairs sorted by name.
func (s *Summary) Metrics() []Metric {
	var read, skipped, malformed, badTotals int
	for _, src := range s.Sources {
		read += src.Records
		skipped += src.Skipped
		malformed += src.Malformed
		badTotals += src.BadTotals
	}
	var cells int
	for _, n := range s.Cleaning.CellsRepaired {
		cells += n
	}

	m := map[string]float64{
		"sources_configured":    float64(len(s.Sources)),
		"sources_failed":        float64(len(s.FailedSources())),
		"records_read":          float64(read),
		"rows_skipped":          float64(skipped),
		"rows_malformed":        float64(malformed),
		"bad_totals":            float64(badTotals),
		"duplicates_removed":    float64(s.Cleaning.DuplicatesRemoved),
		"negative_dropped":      float64(s.Cleaning.NegativeDropped),
		"columns_repaired":      float64(s.Cleaning.ColumnsRepaired),
		"cells_repaired":        float64(cells),
		"records_cleaned":       float64(s.Cleaning.Output),
		"facts_emitted":         float64(s.Flatten.Emitted),
		"empty_items_skipped":   float64(s.Flatten.SkippedEmpty),
		"seasons_derived":       float64(s.Flatten.SeasonDerived),
		"seasons_corrected":     float64(s.Flatten.SeasonCorrected),
		"unknown_dates":         float64(s.Flatten.UnknownDates),
		"allocation_failures":   float64(s.Flatten.AllocationFails),
		"customers_inserted":    float64(s.Customers.Inserted),
		"customers_versioned":   float64(s.Customers.Versioned),
		"customers_unchanged":   float64(s.Customers.Unchanged),
		"customers_skipped":     float64(s.Customers.Skipped),
		"customer_history_rows": float64(s.HistoryRows),
		"store_collisions":      float64(s.StoreCollisions),
		"columns_evolved":       float64(len(s.EvolvedColumns)),
		"tables_failed":         float64(len(s.FailedTables())),
		"rows_loaded":           float64(s.RowsLoaded()),
	}
	if s.Export != nil {
		m["export_rows"] = float64(s.Export.TotalRows)
		m["export_partitions"] = float64(len(s.Export.Partitions))
	}
	if s.ExportErr != nil {
		m["export_failed"] = 1
	}
	for table, n := range s.Rows {
		m["rows_"+table] = float64(n)
	}

	out := make([]Metric, 0, len(m))
	for k, v := range m {
		out = append(out, Metric{Name: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// summaryTable renders the metrics as the ETL_Run_Summary load.
func (s *Summary) summaryTable(name string) storage.Table {
	ms := s.Metrics()
	rows := make([][]any, len(ms))
	for i, m := range ms {
		rows[i] = []any{m.Name, m.Value}
	}
	return storage.Table{Name: name, Columns: []string{"metric", "value"}, Rows: rows}
}

// Log writes the end-of-run summary.
func (s *Summary) Log() {
	for _, src := range s.Sources {
		ev := logging.Info()
		if src.Err != nil {
			ev = logging.Warn().Err(src.Err)
		}
		ev.Str("source", src.Name).
			Str("tag", src.Tag).
			Int("records", src.Records).
			Int("skipped", src.Skipped).
			Int("malformed", src.Malformed).
			Msg("summary: source")
	}

	logging.Info().
		Int("input", s.Cleaning.Input).
		Int("duplicates_removed", s.Cleaning.DuplicatesRemoved).
		Int("negative_dropped", s.Cleaning.NegativeDropped).
		Int("columns_repaired", s.Cleaning.ColumnsRepaired).
		Int("output", s.Cleaning.Output).
		Msg("summary: cleaning")

	logging.Info().
		Int("facts", s.Flatten.Emitted).
		Int("empty_items_skipped", s.Flatten.SkippedEmpty).
		Int("unknown_dates", s.Flatten.UnknownDates).
		Int("seasons_derived", s.Flatten.SeasonDerived).
		Int("seasons_corrected", s.Flatten.SeasonCorrected).
		Strs("evolved", s.EvolvedColumns).
		Msg("summary: facts")

	logging.Info().
		Int("inserted", s.Customers.Inserted).
		Int("versioned", s.Customers.Versioned).
		Int("unchanged", s.Customers.Unchanged).
		Int("history", s.HistoryRows).
		Int("store_collisions", s.StoreCollisions).
		Msg("summary: dimensions")

	if s.Export != nil {
		logging.Info().
			Int64("rows", s.Export.TotalRows).
			Int("partitions", len(s.Export.Partitions)).
			Msg("summary: export")
	} else if s.ExportErr != nil {
		logging.Warn().Err(s.ExportErr).Msg("summary: export failed")
	}

	ev := logging.Info()
	if failed := s.FailedTables(); len(failed) > 0 {
		ev = logging.Warn().Strs("failed_tables", failed)
	}
	ev.Str("job", s.Job).
		Str("run_id", s.RunID).
		Str("state", s.State.String()).
		Str("as_of", s.AsOf).
		Int64("rows_loaded", s.RowsLoaded()).
		Dur("elapsed", s.Finished.Sub(s.Started).Truncate(time.Millisecond)).
		Msg("summary: run finished")
}
