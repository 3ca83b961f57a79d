package main

import (
	"os"

	"retailhub/internal/config"
	"retailhub/internal/logging"
	"retailhub/internal/metrics"
	"retailhub/internal/metrics/datadog"
	"retailhub/internal/metrics/prompush"
)

// setupMetrics installs the configured backend and returns the function
// that flushes it at the end of the run.
func setupMetrics(job string, m config.Metrics) func() {
	backendName := m.Backend
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}

	switch backendName {
	case "pushgateway":
		gwURL := m.PushgatewayURL
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			logging.Warn().Err(err).Msg("metrics: failed to init prom push backend; using nop")
			return func() {}
		}
		logging.Info().Str("url", gwURL).Str("backend", backendName).Str("job", job).Msg("metrics: enabled")
		metrics.SetBackend(b)
		return flushMetrics

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: m.StatsdAddr, Job: job})
		if err != nil {
			logging.Warn().Err(err).Msg("metrics: failed to init datadog backend; using nop")
			return func() {}
		}
		logging.Info().Str("addr", m.StatsdAddr).Str("backend", backendName).Str("job", job).Msg("metrics: enabled")
		metrics.SetBackend(b)
		return flushMetrics

	case "", "none":
		logging.Debug().Msg("metrics: disabled")

	default:
		logging.Warn().Str("backend", backendName).Msg("metrics: unknown backend; metrics disabled")
	}
	return func() {}
}

func flushMetrics() {
	if err := metrics.Flush(); err != nil {
		logging.Warn().Err(err).Msg("metrics: flush error")
	}
}
