package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/spf13/cobra"
)

func newCalculateCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "calculate",
		Short: "Run a JSON calculation request",
		Long: `Reads a calculation request envelope, as accepted by POST /v1/calculate and
the request topic, from a file or stdin ("-"):

  {"kind": "stormwater",
   "stormwater": {"rainfall_depth": 100, "catchment_area": 10,
                  "land_use": "forest", "soil_group": "D"}}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			req, err := domain.ParseRequest(data)
			if err != nil {
				return err
			}
			rec, err := a.svc.Calculate(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.finish(rec, func(w io.Writer) error {
				fmt.Fprintf(w, "%s %s\n", rec.Kind, rec.ID)
				return writeJSONValue(w, rec.Results)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", `request file, or "-" for stdin`)
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read request file: %w", err)
	}
	return data, nil
}

func writeJSONValue(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
