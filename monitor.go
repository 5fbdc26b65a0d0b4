package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/config"
	"github.com/rkarmaka98/anomalyctl/metrics"
	"github.com/rkarmaka98/anomalyctl/monitor"
)

func newMonitorCmd(a *app) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Poll Azure file share metrics and alert on anomalies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			sources, err := buildSources(a.cfg.Monitor)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			sink := metrics.NewSink(reg, a.cfg.Metrics.Namespace)

			alerts := monitor.NewAlertStore()
			runner, err := monitor.NewRunner(a.cfg.Detector, sources,
				monitor.WithAlertStore(alerts),
				monitor.WithInterval(a.cfg.Monitor.Interval),
				monitor.WithLogger(a.logger),
				monitor.WithSink(sink),
			)
			if err != nil {
				return err
			}

			srv := serveMetrics(a.cfg.Metrics.Addr, reg, a.logger)
			runErr := runner.Run(ctx)
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					a.logger.Warn("metrics server shutdown", zap.Error(err))
				}
			}

			out := cmd.OutOrStdout()
			printAlerts(out, alerts)
			for _, st := range runner.Status() {
				fmt.Fprintf(out, " * %s: %d/%d observations, mean %.2f, std dev %.2f\n",
					st.Stream, st.Len, st.Capacity, st.Baseline.Mean, st.Baseline.StdDev)
			}
			return runErr
		},
	}
	flags := cmd.Flags()
	flags.StringP("subscription", "s", "", "Azure Subscription ID (or set AZURE_SUBSCRIPTION_ID)")
	flags.StringSliceP("shares", "l", nil, "Comma-separated list of shares to watch in the form name:resourceID")
	flags.StringSlice("usage-shares", nil, "Comma-separated share names whose used bytes are watched")
	flags.Duration("interval", time.Minute, "Polling interval")
	flags.String("metric", "FileServerIOPS", "Azure Monitor metric to watch")
	flags.String("aggregation", "Average", "Metric aggregation: Average, Total, Maximum, Minimum or Count")
	flags.String("storage-account", "", "Storage account holding the usage shares")
	flags.String("storage-key", "", "Shared key of the storage account")
	flags.String("metrics-addr", ":9464", "Address serving /metrics, empty to disable")
	flags.DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}

func buildSources(mc config.MonitorConfig) ([]monitor.Source, error) {
	var sources []monitor.Source

	shares, err := monitor.ParseShareList(mc.Shares)
	if err != nil {
		return nil, err
	}
	if len(shares) > 0 {
		// validate subscription ID
		if mc.SubscriptionID == "" {
			return nil, errors.New("subscription ID must be provided via --subscription or AZURE_SUBSCRIPTION_ID env")
		}
		client, err := monitor.NewMetricsClient(mc.SubscriptionID)
		if err != nil {
			return nil, fmt.Errorf("monitor init failed: %w", err)
		}
		for _, ref := range shares {
			sources = append(sources, monitor.NewMetricSource(client, ref, mc.Metric, mc.Aggregation))
		}
	}

	if len(mc.UsageShares) > 0 {
		account, err := monitor.NewStorageAccount(mc.StorageAccount, mc.StorageKey)
		if err != nil {
			return nil, err
		}
		for _, name := range mc.UsageShares {
			sources = append(sources, account.UsageSource(name))
		}
	}

	if len(sources) == 0 {
		return nil, errors.New("no shares configured for monitoring")
	}
	return sources, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
