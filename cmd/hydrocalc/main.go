// Command hydrocalc runs the hydraulic calculations from the command line and
// optionally exports the resulting records as JSON files.
//
// Usage:
//
//	hydrocalc channel --width 3 --depth 1.5 --slope 0.001 --roughness 0.013
//	hydrocalc pipes --method darcy-weisbach --file network.yaml --export-dir out/
//	hydrocalc runoff --rainfall 100 --area 10 --land-use forest --soil-group D
//	hydrocalc compare --rainfall 100 --area 10 --soil-group B --json
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/couchcryptid/hydrocalc/internal/domain"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if kind := domain.ErrorKind(err); domain.IsValidationError(err) {
			fmt.Fprintf(os.Stderr, "error: %v (%s)\n", err, kind)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
