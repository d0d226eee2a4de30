package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newPipesCmd(a *app) *cobra.Command {
	var (
		method  string
		file    string
		specs   []string
		add     int
		removes []string
		sets    []string
	)

	cmd := &cobra.Command{
		Use:   "pipes",
		Short: "Flow rate and head loss for a list of pipe segments",
		Long: `Evaluates every segment independently at a reference velocity of 2 m/s.

Segments come from a YAML file (--file), from repeated --pipe L,D,C flags, or
default to a single 100 m x 0.2 m segment. The list can then be edited with
--add <n> (appends default segments), --remove <id> and
--set <id>.<length|diameter|roughness>=<value>.

Example network file:

  method: hazen-williams
  pipes:
    - id: "1"
      length: 100
      diameter: 0.2
      roughness: 130
    - id: "2"
      length: 250
      diameter: 0.3
      roughness: 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := buildNetwork(file, specs, add, removes, sets)
			if err != nil {
				return err
			}
			if in.Method == "" || cmd.Flags().Changed("method") {
				in.Method = domain.HeadLossMethod(method)
			}

			res, rec, err := a.svc.PipeNetwork(cmd.Context(), in)
			if err != nil {
				return err
			}
			return a.finish(rec, func(w io.Writer) error { return printNetwork(w, res) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&method, "method", string(domain.HazenWilliams), "head loss method: hazen-williams or darcy-weisbach")
	f.StringVarP(&file, "file", "f", "", "YAML pipe network file")
	f.StringArrayVar(&specs, "pipe", nil, "segment as length,diameter,roughness (repeatable)")
	f.IntVar(&add, "add", 0, "append this many default segments")
	f.StringArrayVar(&removes, "remove", nil, "remove the segment with this id (repeatable)")
	f.StringArrayVar(&sets, "set", nil, "edit a segment, e.g. 2.diameter=0.3 (repeatable)")
	cmd.MarkFlagsMutuallyExclusive("file", "pipe")
	return cmd
}

// buildNetwork assembles the pipe list from a file or flag specs and applies edits.
func buildNetwork(file string, specs []string, add int, removes, sets []string) (domain.PipeNetworkInput, error) {
	var in domain.PipeNetworkInput
	if add < 0 {
		return in, fmt.Errorf("%w: --add must not be negative", domain.ErrInvalidInput)
	}
	switch {
	case file != "":
		loaded, err := loadNetworkFile(file)
		if err != nil {
			return in, err
		}
		in = loaded
	case len(specs) > 0:
		list := domain.PipeList{}
		for _, spec := range specs {
			seg, err := parsePipeSpec(spec)
			if err != nil {
				return in, err
			}
			list = append(list, seg)
		}
		in.Pipes = list
	default:
		in.Pipes = domain.NewPipeList()
	}

	list := domain.PipeList(in.Pipes).WithIDs()
	for range add {
		list = list.Add()
	}
	for _, id := range removes {
		var err error
		if list, err = list.Remove(id); err != nil {
			return in, err
		}
	}
	for _, set := range sets {
		id, field, value, err := parseSet(set)
		if err != nil {
			return in, err
		}
		if list, err = list.Update(id, field, value); err != nil {
			return in, err
		}
	}
	in.Pipes = list
	return in, nil
}

// loadNetworkFile decodes a YAML network. Unknown keys are rejected.
func loadNetworkFile(path string) (domain.PipeNetworkInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.PipeNetworkInput{}, fmt.Errorf("open network file: %w", err)
	}
	defer f.Close()

	var in domain.PipeNetworkInput
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		return domain.PipeNetworkInput{}, fmt.Errorf("%w: parse network file %s: %v", domain.ErrInvalidInput, path, err)
	}
	return in, nil
}

func parsePipeSpec(spec string) (domain.PipeSegment, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 3 {
		return domain.PipeSegment{}, fmt.Errorf("%w: pipe %q must be length,diameter,roughness", domain.ErrInvalidInput, spec)
	}
	vals := make([]float64, 3)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.PipeSegment{}, fmt.Errorf("%w: pipe %q: %v", domain.ErrInvalidInput, spec, err)
		}
		vals[i] = v
	}
	return domain.PipeSegment{Length: vals[0], Diameter: vals[1], Roughness: vals[2]}, nil
}

// parseSet splits "<id>.<field>=<value>".
func parseSet(set string) (id, field string, value float64, err error) {
	target, raw, ok := strings.Cut(set, "=")
	if !ok {
		return "", "", 0, fmt.Errorf("%w: --set %q must be id.field=value", domain.ErrInvalidInput, set)
	}
	id, field, ok = strings.Cut(target, ".")
	if !ok {
		return "", "", 0, fmt.Errorf("%w: --set %q must be id.field=value", domain.ErrInvalidInput, set)
	}
	value, err = strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: --set %q: %v", domain.ErrInvalidInput, set, err)
	}
	return id, field, value, nil
}

func printNetwork(w io.Writer, res domain.PipeNetworkResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Method: %s\n", res.Method)
	fmt.Fprintln(tw, "ID\tLength (m)\tDiameter (m)\tRoughness\tFlow (m³/s)\tHead loss (m)")
	for _, s := range res.Segments {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%.4f\t%.3f\n",
			s.ID, s.Length, s.Diameter, s.Roughness, deref(s.FlowRate), deref(s.HeadLoss))
	}
	fmt.Fprintf(tw, "Total head loss\t\t\t\t\t%.3f\n", res.TotalHeadLoss())
	return tw.Flush()
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
