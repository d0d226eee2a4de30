package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// CalculationKind identifies which solver produced a record.
type CalculationKind string

const (
	KindOpenChannel          CalculationKind = "open-channel"
	KindPipeNetwork          CalculationKind = "pipe-network"
	KindStormwater           CalculationKind = "stormwater"
	KindStormwaterComparison CalculationKind = "stormwater-comparison"
)

// Kinds lists every calculation kind.
var Kinds = []CalculationKind{KindOpenChannel, KindPipeNetwork, KindStormwater, KindStormwaterComparison}

// ParseKind validates a calculation kind string.
func ParseKind(s string) (CalculationKind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown calculation kind %q", ErrInvalidInput, s)
}

// ExportTimeFormat is the ISO-8601 layout of ExportRecord.Timestamp.
const ExportTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ExportRecord is the immutable, self-describing payload handed to export
// collaborators. Inputs and Results are frozen as JSON at assembly time.
type ExportRecord struct {
	ID        string          `json:"id"`
	Kind      CalculationKind `json:"kind"`
	Inputs    json.RawMessage `json:"inputs"`
	Results   json.RawMessage `json:"results"`
	Timestamp string          `json:"timestamp"`
}

// ComputedAt parses the record timestamp.
func (r ExportRecord) ComputedAt() (time.Time, error) {
	return time.Parse(ExportTimeFormat, r.Timestamp)
}

// AssembleExport packages a computation's inputs and results with the current
// time. The id is derived from kind, inputs and results only, so recomputing the
// same problem yields the same id.
func AssembleExport(kind CalculationKind, inputs, results any) (ExportRecord, error) {
	in, err := json.Marshal(inputs)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("marshal %s inputs: %w", kind, err)
	}
	out, err := json.Marshal(results)
	if err != nil {
		return ExportRecord{}, fmt.Errorf("marshal %s results: %w", kind, err)
	}
	return ExportRecord{
		ID:        generateID(kind, in, out),
		Kind:      kind,
		Inputs:    in,
		Results:   out,
		Timestamp: clock.Now().UTC().Format(ExportTimeFormat),
	}, nil
}

// generateID hashes kind|inputs|results and keeps the first 8 bytes.
func generateID(kind CalculationKind, inputs, results []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{'|'})
	h.Write(inputs)
	h.Write([]byte{'|'})
	h.Write(results)
	return string(kind) + "-" + hex.EncodeToString(h.Sum(nil)[:8])
}

// ExportFilename is the default download name for a kind.
func ExportFilename(kind CalculationKind) string {
	return string(kind) + "-results.json"
}
