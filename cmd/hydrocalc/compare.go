package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/spf13/cobra"
)

func newCompareCmd(a *app) *cobra.Command {
	in := domain.ComparisonInput{RainfallDepth: 100, CatchmentArea: 10, SoilGroup: domain.SoilGroupB}
	var soil string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Runoff of one storm for every land use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in.SoilGroup = domain.SoilGroup(soil)
			rows, rec, err := a.svc.CompareLandUses(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.finish(rec, func(w io.Writer) error { return printComparison(w, rows) })
		},
	}

	f := cmd.Flags()
	f.Float64Var(&in.RainfallDepth, "rainfall", in.RainfallDepth, "rainfall depth P (mm)")
	f.Float64Var(&in.CatchmentArea, "area", in.CatchmentArea, "catchment area (ha)")
	f.StringVar(&soil, "soil-group", string(in.SoilGroup), "hydrologic soil group A-D")
	return cmd
}

func printComparison(w io.Writer, rows []domain.RunoffComparison) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Land use\tCN\tRunoff (mm)\tVolume (m³)")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%g\t%.2f\t%.1f\n", r.Name, r.CurveNumber, r.RunoffDepth, r.RunoffVolume)
	}
	return tw.Flush()
}

func newLandUsesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "land-uses",
		Short: "Print the curve-number table",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries := a.svc.LandUses()
			if a.jsonOut {
				return writeJSONValue(a.out, entries)
			}
			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "Key\tLabel\tA\tB\tC\tD")
			for _, e := range entries {
				cn := e.CurveNumbers
				fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\n", e.Key, e.Label, cn.A, cn.B, cn.C, cn.D)
			}
			return tw.Flush()
		},
	}
}
