package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/hydrocalc/internal/calc"
	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/spf13/cobra"
)

// app carries the state shared by every subcommand.
type app struct {
	svc    *calc.Service
	out    io.Writer
	errOut io.Writer

	jsonOut    bool
	exportPath string
	exportDir  string
	verbose    bool
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "hydrocalc",
		Short: "Open-channel, pipe and stormwater runoff calculations",
		Long: `Hydraulic calculations for civil engineering studies.

Subcommands:
  channel    - Manning uniform flow in a rectangular or trapezoidal channel
  pipes      - Head loss along a list of pipe segments
  runoff     - SCS Curve Number runoff for one land use
  compare    - Runoff of the same storm for every land use
  land-uses  - Curve-number table
  calculate  - Run a JSON calculation request

Every calculation can be exported as a self-describing JSON record with
--export <file> or --export-dir <dir>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
			a.svc = calc.New(logger, observability.NewUnregisteredMetrics(), 0)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.BoolVar(&a.jsonOut, "json", false, "print the export record as JSON instead of a summary")
	pf.StringVar(&a.exportPath, "export", "", "write the export record to this file")
	pf.StringVar(&a.exportDir, "export-dir", "", "write the export record to <dir>/<kind>-results.json")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	root.AddCommand(
		newChannelCmd(a),
		newPipesCmd(a),
		newRunoffCmd(a),
		newCompareCmd(a),
		newLandUsesCmd(a),
		newCalculateCmd(a),
	)
	return root
}

// finish prints the summary (or the record as JSON) and writes the export file
// when one was requested.
func (a *app) finish(rec domain.ExportRecord, summary func(w io.Writer) error) error {
	if a.jsonOut {
		if err := writeJSONValue(a.out, rec); err != nil {
			return err
		}
	} else if err := summary(a.out); err != nil {
		return err
	}

	path := a.exportPath
	if path == "" && a.exportDir != "" {
		path = filepath.Join(a.exportDir, domain.ExportFilename(rec.Kind))
	}
	if path == "" {
		return nil
	}
	if err := exportRecord(path, rec); err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "exported %s to %s\n", rec.Kind, path)
	return nil
}

// exportRecord writes rec as indented JSON, creating parent directories.
func exportRecord(path string, rec domain.ExportRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create export dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := writeJSONValue(f, rec); err != nil {
		f.Close()
		return fmt.Errorf("write export file: %w", err)
	}
	return f.Close()
}
