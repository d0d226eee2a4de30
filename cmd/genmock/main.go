// Command genmock runs the calculation request fixtures through the calculation
// service and writes the resulting export records as a results fixture. It uses
// the real calc and domain packages so the fixture matches pipeline output.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -requests data/mock/calculation_requests.json \
//	  -out data/mock/calculation_results.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/calc"
	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/jonboulle/clockwork"
)

// fixedTime stamps every generated record so the fixture is reproducible.
var fixedTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

type requestFixture struct {
	Name            string          `json:"name"`
	Request         json.RawMessage `json:"request"`
	ExpectErrorKind string          `json:"expect_error_kind,omitempty"`
}

// resultFixture is one entry of the generated file: either a record or the
// error kind the request was rejected with.
type resultFixture struct {
	Name      string               `json:"name"`
	Record    *domain.ExportRecord `json:"record,omitempty"`
	ErrorKind string               `json:"error_kind,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	requestsPath := flag.String("requests", "data/mock/calculation_requests.json", "calculation request fixture")
	outPath := flag.String("out", "data/mock/calculation_results.json", "output path for the results fixture")
	flag.Parse()

	if *requestsPath == "" || *outPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -requests, -out")
	}

	domain.SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer domain.SetClock(nil)

	fixtures, err := loadFixtures(*requestsPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", *requestsPath, err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := calc.New(logger, observability.NewUnregisteredMetrics(), 0)

	results, err := generate(context.Background(), svc, fixtures)
	if err != nil {
		return err
	}
	log.Printf("total: %d fixtures", len(results))

	if err := writeJSON(*outPath, results); err != nil {
		return fmt.Errorf("writing results fixture: %w", err)
	}
	log.Printf("wrote results fixture: %s", *outPath)

	printStats(results)
	return nil
}

func loadFixtures(path string) ([]requestFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixtures []requestFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

// generate computes every fixture. A fixture whose outcome disagrees with its
// expect_error_kind is an error, since the request file would then be stale.
func generate(ctx context.Context, svc *calc.Service, fixtures []requestFixture) ([]resultFixture, error) {
	results := make([]resultFixture, 0, len(fixtures))
	for _, fx := range fixtures {
		rec, err := calculate(ctx, svc, fx.Request)
		switch {
		case err != nil && fx.ExpectErrorKind == "":
			return nil, fmt.Errorf("fixture %q: unexpected error: %w", fx.Name, err)
		case err != nil && domain.ErrorKind(err) != fx.ExpectErrorKind:
			return nil, fmt.Errorf("fixture %q: expected %s, got %s", fx.Name, fx.ExpectErrorKind, domain.ErrorKind(err))
		case err == nil && fx.ExpectErrorKind != "":
			return nil, fmt.Errorf("fixture %q: expected %s, got a result", fx.Name, fx.ExpectErrorKind)
		}

		if err != nil {
			results = append(results, resultFixture{Name: fx.Name, ErrorKind: domain.ErrorKind(err)})
			continue
		}
		results = append(results, resultFixture{Name: fx.Name, Record: &rec})
	}
	return results, nil
}

func calculate(ctx context.Context, svc *calc.Service, raw json.RawMessage) (domain.ExportRecord, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	return svc.Calculate(ctx, req)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printStats reports counts for updating test assertions.
func printStats(results []resultFixture) {
	kinds := map[domain.CalculationKind]int{}
	errs := map[string]int{}
	for _, r := range results {
		if r.Record != nil {
			kinds[r.Record.Kind]++
			continue
		}
		errs[r.ErrorKind]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(results))
	for _, k := range domain.Kinds {
		fmt.Printf("  %-24s %d\n", k, kinds[k])
	}

	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Rejected:")
	for _, name := range names {
		fmt.Printf("  %-24s %d\n", name, errs[name])
	}

	printStormwaterDetails(results)
}

func printStormwaterDetails(results []resultFixture) {
	for _, r := range results {
		if r.Record == nil || r.Record.Kind != domain.KindStormwater {
			continue
		}
		var res domain.RunoffResult
		if err := json.Unmarshal(r.Record.Results, &res); err != nil {
			continue
		}
		fmt.Printf("\n%s (%s):\n", r.Name, r.Record.ID)
		fmt.Printf("  CN=%g S=%.2f Ia=%.2f Q=%.2f mm V=%.1f m³\n",
			res.CurveNumber, res.RetentionParameter, res.InitialAbstraction, res.RunoffDepth, res.RunoffVolume)
	}
}
