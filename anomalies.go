package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/anomaly"
	"github.com/rkarmaka98/anomalyctl/monitor"
)

func newAnomaliesCmd(a *app) *cobra.Command {
	var (
		output    string
		normalize string
	)
	cmd := &cobra.Command{
		Use:   "anomalies [file]",
		Short: "Show the anomalous observations of a series",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(inputPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			var (
				lines []int
				raw   []float64
			)
			err = scanValues(in, func(line int, v float64) error {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					a.logger.Warn("skipping observation", zap.Int("line", line), zap.Error(anomaly.ErrNonFiniteObservation))
					return nil
				}
				lines = append(lines, line)
				raw = append(raw, v)
				return nil
			})
			if err != nil {
				return err
			}

			values, normalized, err := preprocess(raw, normalize)
			if err != nil {
				return err
			}

			d, err := a.cfg.NewDetector()
			if err != nil {
				return err
			}
			p, err := newPrinter(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}

			// index into raw of every value the detector accepted, in order
			var accepted []int
			row := func(i int, source string, res anomaly.Result) observation {
				o := observation{Line: lines[i], Source: source, Result: res}
				if normalized {
					n := res.Value
					o.Normalized = &n
					o.Value = raw[i]
				}
				return o
			}
			for i, v := range values {
				res, err := d.Observe(v)
				if errors.Is(err, anomaly.ErrNonFiniteObservation) {
					a.logger.Warn("skipping normalized observation", zap.Int("line", lines[i]), zap.Error(err))
					continue
				}
				accepted = append(accepted, i)
				if res.Anomaly {
					if err := p.print(row(i, "stream", res)); err != nil {
						return err
					}
				}
			}
			window := d.Rescan()
			offset := len(accepted) - len(window)
			for j, res := range window {
				if res.Anomaly {
					if err := p.print(row(accepted[offset+j], "window", res)); err != nil {
						return err
					}
				}
			}
			return p.flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().StringVar(&normalize, "normalize", "none", "Preprocess the series first: none, minmax or standardize")
	return cmd
}

// preprocess applies the named normalization to finite values and reports
// whether the output differs from the input scale.
func preprocess(values []float64, mode string) ([]float64, bool, error) {
	switch strings.ToLower(mode) {
	case "", "none":
		return values, false, nil
	case "minmax":
		return anomaly.MinMaxNormalize(values), true, nil
	case "standardize":
		return anomaly.Standardize(values), true, nil
	}
	return nil, false, fmt.Errorf("unknown normalization %q, want none, minmax or standardize", mode)
}

// printAlerts lists the current alert of every stream.
func printAlerts(w io.Writer, store *monitor.AlertStore) {
	fmt.Fprintln(w, "Current Anomaly Alerts:")
	for _, alert := range store.List() {
		fmt.Fprintf(w, " - %s: %s [%s at %s]\n", alert.Stream, alert.Message, alert.ID, alert.At.Format("2006-01-02T15:04:05Z07:00"))
	}
}
