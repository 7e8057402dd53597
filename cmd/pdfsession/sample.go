package main

import (
	"encoding/csv"
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"pdfcore/internal/sampler"
)

type frameOutput struct {
	View   sampler.View    `json:"view"`
	YMax   float64         `json:"y_max,omitempty"`
	Traces []sampler.Trace `json:"traces"`
}

func (a *app) sampleCmd() *cobra.Command {
	var lo, hi float64
	var n int
	var fill bool
	cmd := &cobra.Command{
		Use:   "sample [ID]",
		Short: "Sample one curve as CSV, or every curve as a JSON frame",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd.Context(), false); err != nil {
				return err
			}
			view := a.view(cmd, lo, hi)
			if len(args) == 0 {
				return a.writeFrame(view)
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if n == 0 {
				n = a.svc.Resolution()
			}
			sample := a.svc.Curve
			if fill {
				sample = a.svc.FillPolygon
			}
			points, err := sample(id, view, n)
			if err != nil {
				return err
			}
			w := csv.NewWriter(a.stdout)
			if err := w.Write([]string{"x", "y"}); err != nil {
				return err
			}
			for _, p := range points {
				if err := w.Write([]string{
					strconv.FormatFloat(p.X, 'g', -1, 64),
					strconv.FormatFloat(p.Y, 'g', -1, 64),
				}); err != nil {
					return err
				}
			}
			w.Flush()
			return w.Error()
		},
	}
	cmd.Flags().Float64Var(&lo, "min", 0, "left edge of the view (default: auto fit)")
	cmd.Flags().Float64Var(&hi, "max", 0, "right edge of the view (default: auto fit)")
	cmd.Flags().IntVarP(&n, "samples", "n", 0, "sample count (default: PDFCORE_RESOLUTION)")
	cmd.Flags().BoolVar(&fill, "fill", false, "emit the shading polygon instead of the curve")
	return cmd
}

func (a *app) writeFrame(view sampler.View) error {
	traces, err := a.svc.Frame(view)
	if err != nil {
		return err
	}
	out := frameOutput{View: view, Traces: traces}
	if bounds, ok := a.svc.AutoFit(); ok {
		out.YMax = bounds.YMax
	}
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
