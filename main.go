package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/config"
	"github.com/rkarmaka98/anomalyctl/logging"
)

// flagKeys maps command-line flags onto configuration keys. A flag is bound
// only on the commands that define it.
var flagKeys = map[string]string{
	"strategy":        "detector.strategy",
	"capacity":        "detector.capacity",
	"threshold":       "detector.threshold",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"log-file":        "log.file",
	"subscription":    "monitor.subscription_id",
	"shares":          "monitor.shares",
	"usage-shares":    "monitor.usage_shares",
	"interval":        "monitor.interval",
	"metric":          "monitor.metric",
	"aggregation":     "monitor.aggregation",
	"storage-account": "monitor.storage_account",
	"storage-key":     "monitor.storage_key",
	"metrics-addr":    "metrics.addr",
}

// app carries what every command needs once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "anomalyctl",
		Short:         "Streaming anomaly detection for scalar metrics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	// global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "", "YAML config file")
	flags.StringP("strategy", "S", "zscore", "Detection strategy: zscore, isolation or robust")
	flags.IntP("capacity", "n", 20, "Number of recent observations kept in the window")
	flags.Float64P("threshold", "t", 3, "Anomaly threshold on the strategy's score")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("log-file", "", "Write logs to this file with rotation instead of stderr")

	rootCmd.AddCommand(
		newDetectCmd(a),
		newAnomaliesCmd(a),
		newEvaluateCmd(a),
		newMonitorCmd(a),
		newSharesCmd(a),
	)
	return rootCmd
}

func (a *app) load(cmd *cobra.Command) error {
	loader := config.NewLoader()
	bindings := make(map[string]*pflag.Flag)
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			bindings[key] = f
		}
	}
	if err := loader.BindFlags(bindings); err != nil {
		return err
	}

	cfg, err := loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	if cfg.Monitor.SubscriptionID == "" {
		cfg.Monitor.SubscriptionID = os.Getenv("AZURE_SUBSCRIPTION_ID")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
