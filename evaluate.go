package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

// labelled is one row of an evaluation file.
type labelled struct {
	value float64
	label bool
}

// readLabelled parses "value,label" rows. A first row whose value does not
// parse is treated as a header.
func readLabelled(r io.Reader) ([]labelled, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	var rows []labelled
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if err != nil {
			if row == 1 {
				continue
			}
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		label, err := strconv.ParseBool(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		rows = append(rows, labelled{value: v, label: label})
	}
}

func newEvaluateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [file]",
		Short: "Score detector verdicts against a labelled series",
		Long:  "Reads CSV rows of value,label (label is true/false or 1/0) and reports precision, recall and F1.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := openInput(inputPath(args), cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			rows, err := readLabelled(in)
			if err != nil {
				return err
			}
			d, err := a.cfg.NewDetector()
			if err != nil {
				return err
			}

			predicted := make([]bool, 0, len(rows))
			actual := make([]bool, 0, len(rows))
			for i, row := range rows {
				res, err := d.Observe(row.value)
				if errors.Is(err, anomaly.ErrNonFiniteObservation) {
					a.logger.Warn("skipping observation", zap.Int("row", i+1), zap.Error(err))
					continue
				}
				predicted = append(predicted, res.Anomaly)
				actual = append(actual, row.label)
			}

			precision, recall, f1 := anomaly.PrecisionRecallF1(predicted, actual)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "strategy:   %s\n", d.Strategy())
			fmt.Fprintf(out, "samples:    %d\n", len(predicted))
			fmt.Fprintf(out, "precision:  %.4f\n", precision)
			fmt.Fprintf(out, "recall:     %.4f\n", recall)
			fmt.Fprintf(out, "f1:         %.4f\n", f1)
			return nil
		},
	}
}
