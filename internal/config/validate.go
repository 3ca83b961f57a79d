package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks a run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced but does not block a run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is a dotted path into
// the config (e.g. "sources[1].file.path").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// AsOfLayout is the layout of runtime.as_of and of every date column.
const AsOfLayout = "2006-01-02"

// ValidatePipeline performs static checks over p without mutating it.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels metrics and log lines",
		})
	}
	issues = append(issues, validateSources(p.Sources)...)
	issues = append(issues, validateCleaning(p.Cleaning)...)
	issues = append(issues, validateGenerator(p.Generator)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateExport(p.Export)...)
	issues = append(issues, validateMetrics(p.Metrics)...)
	issues = append(issues, validateRuntime(p.Runtime)...)
	return issues
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

func validateSources(ss []Source) []Issue {
	var issues []Issue
	if len(ss) == 0 {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "sources",
			Message:  "at least one source must be declared",
		})
	}

	seen := make(map[string]int, len(ss))
	for i, s := range ss {
		base := fmt.Sprintf("sources[%d]", i)
		name := strings.TrimSpace(s.Name)
		if name == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".name",
				Message:  "source name must not be empty",
			})
		} else if prev, dup := seen[name]; dup {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     base + ".name",
				Message:  fmt.Sprintf("duplicate source name %q (also sources[%d]); summaries will merge", name, prev),
			})
		} else {
			seen[name] = i
		}

		switch s.Kind {
		case "csv", "json":
		case "":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  "source kind must not be empty",
			})
		default:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".kind",
				Message:  fmt.Sprintf("unsupported source kind %q; want csv or json", s.Kind),
			})
		}

		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".file.path",
				Message:  "file source requires a non-empty path",
			})
		}

		if s.Kind == "json" && len(s.Options.StringMap("header_map")) > 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     base + ".options.header_map",
				Message:  "header_map is ignored by the json reader",
			})
		}
		if c := s.Options.String("comma", ""); len([]rune(c)) > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     base + ".options.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", c),
			})
		}
	}
	return issues
}

func validateCleaning(c Cleaning) []Issue {
	var issues []Issue
	if strings.TrimSpace(c.Sentinel) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "cleaning.sentinel",
			Message:  "empty sentinel leaves missing text fields blank",
		})
	}
	if strings.TrimSpace(c.DedupKey) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "cleaning.dedup_key",
			Message:  "dedup_key must not be empty",
		})
	}
	switch strings.ToLower(strings.TrimSpace(c.DedupPolicy)) {
	case "", "keep-first", "keep-last", "most-complete":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "cleaning.dedup_policy",
			Message:  fmt.Sprintf("unsupported dedup_policy %q; want keep-first, keep-last or most-complete", c.DedupPolicy),
		})
	}
	return issues
}

func validateGenerator(g Generator) []Issue {
	var issues []Issue
	if g.ShipmentSample < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "generator.shipment_sample",
			Message:  "shipment_sample must be >= 0",
		})
	}
	if g.DelayCutoff < 1 || g.DelayCutoff > 8 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "generator.delay_cutoff",
			Message:  fmt.Sprintf("delay_cutoff=%d is outside 1..8; every shipment gets the same status", g.DelayCutoff),
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	switch s.Kind {
	case "sqlite", "postgres", "mssql":
	case "":
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q; want sqlite, postgres or mssql", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	return issues
}

func validateExport(e Export) []Issue {
	var issues []Issue
	if !e.Enabled {
		return nil
	}
	if strings.TrimSpace(e.URL) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.url",
			Message:  "export is enabled but export.url is empty",
		})
	}
	if e.Concurrency < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.concurrency",
			Message:  "export.concurrency must be >= 0",
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	switch m.Backend {
	case "", "none":
		return nil
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			}}
		}
		return nil
	case "datadog":
		if strings.TrimSpace(m.StatsdAddr) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "metrics.statsd_addr",
				Message:  "datadog backend requires statsd_addr",
			}}
		}
		return nil
	default:
		return []Issue{{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics will be disabled", m.Backend),
		}}
	}
}

func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue
	if r.AsOf != "" {
		if _, err := time.Parse(AsOfLayout, r.AsOf); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "runtime.as_of",
				Message:  fmt.Sprintf("as_of %q is not a YYYY-MM-DD date", r.AsOf),
			})
		}
	}
	switch strings.ToLower(r.LogLevel) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.log_level",
			Message:  fmt.Sprintf("unknown log level %q; info is used", r.LogLevel),
		})
	}
	return issues
}

// ResolveAsOf returns the configured as-of date, or today's date (UTC) when
// unset.
func (r RuntimeConfig) ResolveAsOf(now time.Time) (time.Time, error) {
	if r.AsOf == "" {
		y, m, d := now.UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(AsOfLayout, r.AsOf)
	if err != nil {
		return time.Time{}, fmt.Errorf("runtime.as_of: %w", err)
	}
	return t, nil
}
