// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A warehouse build is a short-lived batch job, so metrics
// are pushed once at the end of the run instead of being scraped.
package prompush

import (
	"fmt"

	"retailhub/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter   *prometheus.CounterVec
	stepDuration  *prometheus.SummaryVec
	recordCounter *prometheus.CounterVec
	tableLoads    *prometheus.CounterVec
	tableRows     *prometheus.CounterVec
}

// NewBackend constructs a Pushgateway backend. The job label is carried by
// the Pushgateway grouping key, so collectors do not repeat it.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "retailhub"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDuration,
			Help:       "Duration of pipeline stages in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)
	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RecordsTotal,
			Help: "Record-level counts per kind (read, duplicates_removed, facts, ...).",
		},
		[]string{"kind"},
	)
	tableLoads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.TableLoadsTotal,
			Help: "Warehouse table writes, partitioned by table and status.",
		},
		[]string{"table", "status"},
	)
	tableRows := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.TableRowsWritten,
			Help: "Rows committed per warehouse table.",
		},
		[]string{"table"},
	)

	for name, c := range map[string]prometheus.Collector{
		"step counter":   stepCounter,
		"step summary":   stepDuration,
		"record counter": recordCounter,
		"table loads":    tableLoads,
		"table rows":     tableRows,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		tableLoads:    tableLoads,
		tableRows:     tableRows,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case metrics.RecordsTotal:
		if b.recordCounter != nil {
			b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case metrics.TableLoadsTotal:
		if b.tableLoads != nil {
			b.tableLoads.WithLabelValues(labels["table"], labels["status"]).Add(delta)
		}
	case metrics.TableRowsWritten:
		if b.tableRows != nil {
			b.tableRows.WithLabelValues(labels["table"]).Add(delta)
		}
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
