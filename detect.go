package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

func newDetectCmd(a *app) *cobra.Command {
	var (
		output string
		rescan bool
	)
	cmd := &cobra.Command{
		Use:   "detect [file]",
		Short: "Evaluate a stream of observations, one number per line",
		Long: "Reads one observation per line from file, or stdin when file is omitted or '-',\n" +
			"and prints the verdict and score of each as it enters the window.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.cfg.NewDetector()
			if err != nil {
				return err
			}
			in, err := openInput(inputPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			p, err := newPrinter(cmd.OutOrStdout(), output)
			if err != nil {
				return err
			}
			err = scanValues(in, func(line int, v float64) error {
				res, err := d.Observe(v)
				if errors.Is(err, anomaly.ErrNonFiniteObservation) {
					a.logger.Warn("skipping observation", zap.Int("line", line), zap.Error(err))
					return nil
				}
				return p.print(observation{Line: line, Source: "stream", Result: res})
			})
			if err != nil {
				return err
			}
			if rescan {
				for _, res := range d.Rescan() {
					if err := p.print(observation{Source: "window", Result: res}); err != nil {
						return err
					}
				}
			}
			return p.flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, json or yaml")
	cmd.Flags().BoolVar(&rescan, "rescan", false, "Also judge every value left in the window against the final baseline")
	return cmd
}
