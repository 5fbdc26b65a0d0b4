package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/rkarmaka98/anomalyctl/anomaly"
)

// observation is one evaluated input line. Value is always the input as
// read; Normalized is what the detector saw when preprocessing was applied.
type observation struct {
	Line           int      `yaml:"line,omitempty"`
	Source         string   `yaml:"source"`
	Normalized     *float64 `yaml:"normalized,omitempty"`
	anomaly.Result `yaml:",inline"`
}

// printer writes observations in one of the supported output formats.
type printer interface {
	print(o observation) error
	flush() error
}

func newPrinter(w io.Writer, format string) (printer, error) {
	switch strings.ToLower(format) {
	case "", "text":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SOURCE\tLINE\tVALUE\tSCORE\tANOMALY")
		return &textPrinter{tw: tw}, nil
	case "json":
		return &jsonPrinter{enc: json.NewEncoder(w)}, nil
	case "yaml":
		return &yamlPrinter{enc: yaml.NewEncoder(w)}, nil
	}
	return nil, fmt.Errorf("unknown output format %q, want text, json or yaml", format)
}

type textPrinter struct {
	tw *tabwriter.Writer
}

func (p *textPrinter) print(o observation) error {
	line := "-"
	if o.Line > 0 {
		line = fmt.Sprint(o.Line)
	}
	_, err := fmt.Fprintf(p.tw, "%s\t%s\t%g\t%.4f\t%t\n", o.Source, line, o.Value, o.Score, o.Anomaly)
	return err
}

func (p *textPrinter) flush() error { return p.tw.Flush() }

type jsonPrinter struct {
	enc *json.Encoder
}

func (p *jsonPrinter) print(o observation) error { return p.enc.Encode(toJSONRow(o)) }
func (p *jsonPrinter) flush() error              { return nil }

// jsonFloat writes NaN and ±Inf as the strings "NaN", "+Inf" and "-Inf",
// which encoding/json refuses as numbers.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

type jsonBaseline struct {
	Count  int       `json:"count"`
	Mean   jsonFloat `json:"mean"`
	StdDev jsonFloat `json:"std_dev"`
	Min    jsonFloat `json:"min"`
	Max    jsonFloat `json:"max"`
}

type jsonRow struct {
	Line       int              `json:"line,omitempty"`
	Source     string           `json:"source"`
	Normalized *jsonFloat       `json:"normalized,omitempty"`
	Value      jsonFloat        `json:"value"`
	Anomaly    bool             `json:"anomaly"`
	Score      jsonFloat        `json:"score"`
	Strategy   anomaly.Strategy `json:"strategy"`
	Baseline   jsonBaseline     `json:"baseline"`
}

func toJSONRow(o observation) jsonRow {
	b := o.Baseline
	row := jsonRow{
		Line:     o.Line,
		Source:   o.Source,
		Value:    jsonFloat(o.Value),
		Anomaly:  o.Anomaly,
		Score:    jsonFloat(o.Score),
		Strategy: o.Strategy,
		Baseline: jsonBaseline{
			Count:  b.Count,
			Mean:   jsonFloat(b.Mean),
			StdDev: jsonFloat(b.StdDev),
			Min:    jsonFloat(b.Min),
			Max:    jsonFloat(b.Max),
		},
	}
	if o.Normalized != nil {
		n := jsonFloat(*o.Normalized)
		row.Normalized = &n
	}
	return row
}

// yamlPrinter needs no float handling: YAML spells non-finite values .inf
// and .nan.
type yamlPrinter struct {
	enc *yaml.Encoder
}

func (p *yamlPrinter) print(o observation) error { return p.enc.Encode(o) }
func (p *yamlPrinter) flush() error              { return p.enc.Close() }
