// Command validate performs end-to-end checks of the calculation engine and its
// mock data: textbook reference scenarios, request fixture expectations, the
// generated results fixture, and export record shape.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -requests data/mock/calculation_requests.json \
//	  -results data/mock/calculation_results.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/calc"
	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/jonboulle/clockwork"
)

// fixedTime matches genmock so regenerated records compare equal.
var fixedTime = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type requestFixture struct {
	Name            string          `json:"name"`
	Request         json.RawMessage `json:"request"`
	ExpectErrorKind string          `json:"expect_error_kind,omitempty"`
}

type resultFixture struct {
	Name      string               `json:"name"`
	Record    *domain.ExportRecord `json:"record,omitempty"`
	ErrorKind string               `json:"error_kind,omitempty"`
}

func main() {
	requestsPath := flag.String("requests", "data/mock/calculation_requests.json", "calculation request fixture")
	resultsPath := flag.String("results", "", "results fixture written by genmock (optional)")
	flag.Parse()

	if *requestsPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*requestsPath, *resultsPath); code != 0 {
		os.Exit(code)
	}
}

func run(requestsPath, resultsPath string) int {
	domain.SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer domain.SetClock(nil)

	fmt.Println("=== Hydraulic Calculation Validation ===")
	fmt.Println()

	requests, err := loadJSON[requestFixture](requestsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load request fixtures: %v\n", err)
		return 1
	}

	var results []resultFixture
	if resultsPath != "" {
		results, err = loadJSON[resultFixture](resultsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load results fixture: %v\n", err)
			return 1
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := calc.New(logger, observability.NewUnregisteredMetrics(), 0)
	ctx := context.Background()

	records, reqPhase := validateRequestFixtures(ctx, svc, requests)
	phases := []*phase{
		validateReferenceScenarios(),
		reqPhase,
		validateRecordShape(records),
	}
	if resultsPath != "" {
		phases = append(phases, validateResultsFixture(results, requests, records))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Fixtures: %d requests, %d records, %d results\n", len(requests), len(records), len(results))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Reference Scenarios ──
// Hand-checked textbook values for each solver.

func validateReferenceScenarios() *phase {
	p := &phase{name: "Phase 1: Reference Scenarios (solvers)"}
	checkChannelScenario(p)
	checkRunoffScenarios(p)
	checkPipeScenario(p)
	return p
}

func checkChannelScenario(p *phase) {
	res, err := domain.ComputeOpenChannelFlow(domain.ChannelGeometry{Width: 3, Depth: 1.5, Slope: 0.001, Roughness: 0.013})
	if err != nil {
		p.errorf("rectangular channel: %v", err)
		return
	}
	expectNear(p, "channel area", res.Area, 4.5, 1e-9)
	expectNear(p, "channel wetted perimeter", res.WettedPerimeter, 6, 1e-9)
	expectNear(p, "channel hydraulic radius", res.HydraulicRadius, 0.75, 1e-9)
	expectNear(p, "channel velocity", res.Velocity, 2.008, 1e-3)
	expectNear(p, "channel froude number", res.FroudeNumber, 0.523, 1e-3)
	expectNear(p, "channel shear stress", res.ShearStress, 7.3575, 1e-9)
	if res.FlowType != domain.FlowSubcritical {
		p.errorf("channel flow type: expected %s, got %s", domain.FlowSubcritical, res.FlowType)
	}
}

func checkRunoffScenarios(p *phase) {
	res, err := domain.ComputeRunoff(domain.RunoffInput{RainfallDepth: 100, CatchmentArea: 10, LandUse: "forest", SoilGroup: domain.SoilGroupD})
	if err != nil {
		p.errorf("forest D runoff: %v", err)
		return
	}
	expectNear(p, "forest D curve number", res.CurveNumber, 79, 0)
	expectNear(p, "forest D retention", res.RetentionParameter, 67.52, 1e-2)
	expectNear(p, "forest D initial abstraction", res.InitialAbstraction, 13.50, 1e-2)
	expectNear(p, "forest D runoff depth", res.RunoffDepth, 48.58, 1e-2)
	expectNear(p, "forest D runoff volume", res.RunoffVolume, res.RunoffDepth*100, 1e-9)

	// Rainfall below the initial abstraction produces no runoff.
	dry, err := domain.ComputeRunoff(domain.RunoffInput{RainfallDepth: 50, CatchmentArea: 10, LandUse: "forest", SoilGroup: domain.SoilGroupA})
	if err != nil {
		p.errorf("forest A runoff: %v", err)
		return
	}
	if dry.RunoffDepth != 0 || dry.RunoffVolume != 0 {
		p.errorf("forest A at P=50: expected zero runoff, got Q=%g V=%g", dry.RunoffDepth, dry.RunoffVolume)
	}

	rows, err := domain.CompareLandUses(100, 10, domain.SoilGroupB)
	if err != nil {
		p.errorf("comparison: %v", err)
		return
	}
	if len(rows) != len(domain.LandUses()) {
		p.errorf("comparison: expected %d rows, got %d", len(domain.LandUses()), len(rows))
	}
}

func checkPipeScenario(p *phase) {
	res, err := domain.ComputeNetwork(domain.NewPipeList(), domain.DarcyWeisbach)
	if err != nil {
		p.errorf("default pipe: %v", err)
		return
	}
	if len(res.Segments) != 1 {
		p.errorf("default pipe: expected 1 segment, got %d", len(res.Segments))
		return
	}
	seg := res.Segments[0]
	expectNear(p, "pipe flow rate", deref(seg.FlowRate), 2*math.Pi*0.01, 1e-12)
	expectNear(p, "pipe head loss", deref(seg.HeadLoss), 0.08*0.015*4*100/(2*domain.Gravity*0.2), 1e-12)
}

// ── Phase 2: Request Fixtures ──
// Every fixture must succeed or fail exactly as annotated.

func validateRequestFixtures(ctx context.Context, svc *calc.Service, fixtures []requestFixture) (map[string]domain.ExportRecord, *phase) {
	p := &phase{name: "Phase 2: Request Fixtures (service)"}
	records := make(map[string]domain.ExportRecord, len(fixtures))

	seen := map[string]bool{}
	for _, fx := range fixtures {
		if seen[fx.Name] {
			p.errorf("fixture %q: duplicate name", fx.Name)
		}
		seen[fx.Name] = true

		rec, err := calculate(ctx, svc, fx.Request)
		switch {
		case err != nil && fx.ExpectErrorKind == "":
			p.errorf("fixture %q: unexpected error: %v", fx.Name, err)
		case err != nil && domain.ErrorKind(err) != fx.ExpectErrorKind:
			p.errorf("fixture %q: expected %s, got %s", fx.Name, fx.ExpectErrorKind, domain.ErrorKind(err))
		case err == nil && fx.ExpectErrorKind != "":
			p.errorf("fixture %q: expected %s, got a result", fx.Name, fx.ExpectErrorKind)
		case err == nil:
			records[fx.Name] = rec
		}
	}
	return records, p
}

func calculate(ctx context.Context, svc *calc.Service, raw json.RawMessage) (domain.ExportRecord, error) {
	req, err := domain.ParseRequest(raw)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	return svc.Calculate(ctx, req)
}

// ── Phase 3: Record Shape ──
// Export records must be self-describing.

func validateRecordShape(records map[string]domain.ExportRecord) *phase {
	p := &phase{name: "Phase 3: Record Shape (export)"}
	for name, rec := range records {
		if _, err := domain.ParseKind(string(rec.Kind)); err != nil {
			p.errorf("%s: %v", name, err)
		}
		if !strings.HasPrefix(rec.ID, string(rec.Kind)+"-") {
			p.errorf("%s: id %q doesn't start with kind prefix %q-", name, rec.ID, rec.Kind)
		}
		if ts, err := rec.ComputedAt(); err != nil {
			p.errorf("%s: timestamp %q: %v", name, rec.Timestamp, err)
		} else if !ts.Equal(fixedTime) {
			p.errorf("%s: timestamp %s, expected %s", name, ts.Format(time.RFC3339), fixedTime.Format(time.RFC3339))
		}
		if !json.Valid(rec.Inputs) || len(rec.Inputs) == 0 {
			p.errorf("%s: inputs are not valid JSON", name)
		}
		if !json.Valid(rec.Results) || len(rec.Results) == 0 {
			p.errorf("%s: results are not valid JSON", name)
		}
	}
	return p
}

// ── Phase 4: Results Fixture ──
// The committed results must match what the engine produces today.

func validateResultsFixture(results []resultFixture, requests []requestFixture, records map[string]domain.ExportRecord) *phase {
	p := &phase{name: "Phase 4: Results Fixture (genmock output)"}

	if len(results) != len(requests) {
		p.errorf("count: %d requests, %d results", len(requests), len(results))
	}

	byName := make(map[string]resultFixture, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}

	for _, fx := range requests {
		r, ok := byName[fx.Name]
		if !ok {
			p.errorf("fixture %q: missing from results", fx.Name)
			continue
		}
		if fx.ExpectErrorKind != "" {
			if r.ErrorKind != fx.ExpectErrorKind {
				p.errorf("fixture %q: error_kind %q, expected %q", fx.Name, r.ErrorKind, fx.ExpectErrorKind)
			}
			continue
		}
		want, ok := records[fx.Name]
		if !ok {
			continue // already reported in phase 2
		}
		if r.Record == nil {
			p.errorf("fixture %q: no record in results", fx.Name)
			continue
		}
		if r.Record.ID != want.ID {
			p.errorf("fixture %q: id %s, engine now produces %s", fx.Name, r.Record.ID, want.ID)
		}
		if r.Record.Kind != want.Kind {
			p.errorf("fixture %q: kind %s, expected %s", fx.Name, r.Record.Kind, want.Kind)
		}
		if r.Record.Timestamp != want.Timestamp {
			p.errorf("fixture %q: timestamp %s, expected %s", fx.Name, r.Record.Timestamp, want.Timestamp)
		}
	}
	return p
}

// ── Helpers ──

func expectNear(p *phase, what string, got, want, tol float64) {
	if math.Abs(got-want) > tol {
		p.errorf("%s: expected %g (±%g), got %g", what, want, tol, got)
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
