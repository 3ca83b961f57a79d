// Command retailhub builds the retail star-schema warehouse from the
// configured raw sources.
//
//	retailhub run --config configs/retailhub.yaml
//	retailhub validate --print
//	retailhub schema rebuild
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"retailhub/internal/config"
	"retailhub/internal/logging"

	// register all backends with the storage factory.
	_ "retailhub/internal/storage/all"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "retailhub:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand. Empty values leave the
// config file (and its RETAILHUB_ environment overrides) in charge.
type globalFlags struct {
	configPath     string
	asOf           string
	logLevel       string
	logJSON        bool
	metricsBackend string
	pushgatewayURL string
	statsdAddr     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "retailhub",
		Short: "Build the retail sales warehouse from raw POS, web and history extracts",
		Long: `retailhub reads every configured source, cleans and flattens the
transactions, builds the product, customer and store dimensions, generates
inventory and shipment facts, and loads them into a rebuilt star schema.
The sales fact is also exported as city-partitioned parquet.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "pipeline config file (default: ./retailhub.yaml or ./configs/retailhub.yaml)")
	pf.StringVar(&g.asOf, "as-of", "", "run date YYYY-MM-DD used for customer versioning (default: today)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVar(&g.logJSON, "log-json", false, "emit JSON log lines")
	pf.StringVar(&g.metricsBackend, "metrics-backend", "", "metrics backend (pushgateway, datadog, none)")
	pf.StringVar(&g.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL")
	pf.StringVar(&g.statsdAddr, "statsd-addr", "", "DogStatsD agent address for the datadog backend")

	root.AddCommand(newRunCmd(g), newValidateCmd(g), newSchemaCmd(g))
	return root
}

// load resolves the pipeline: file, then environment, then flags. The
// logger is reconfigured from the result.
func (g *globalFlags) load() (*config.Pipeline, error) {
	p, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.asOf != "" {
		p.Runtime.AsOf = g.asOf
	}
	if g.logLevel != "" {
		p.Runtime.LogLevel = g.logLevel
	}
	if g.logJSON {
		p.Runtime.LogJSON = true
	}
	if g.metricsBackend != "" {
		p.Metrics.Backend = g.metricsBackend
	}
	if g.pushgatewayURL != "" {
		p.Metrics.PushgatewayURL = g.pushgatewayURL
	}
	if g.statsdAddr != "" {
		p.Metrics.StatsdAddr = g.statsdAddr
	}

	logging.Init(logging.Config{Level: p.Runtime.LogLevel, JSON: p.Runtime.LogJSON})
	return p, nil
}

// check prints every issue to errOut and fails when any is an error.
func check(p *config.Pipeline, errOut io.Writer) error {
	issues := config.ValidatePipeline(*p)
	for _, iss := range issues {
		fmt.Fprintf(errOut, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration is invalid")
	}
	return nil
}
