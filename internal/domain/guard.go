package domain

import (
	"fmt"
	"math"
)

// Range is a closed interval [Min, Max] of legal values for one input.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies inside the interval. NaN is never contained.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp pins v to the interval. Intended for slider-style controls only; the
// engine itself never clamps and rejects out-of-range values instead.
func (r Range) Clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}

func (r Range) String() string {
	return fmt.Sprintf("[%g, %g]", r.Min, r.Max)
}

// CheckRange returns v unchanged if it is finite and inside r.
func CheckRange(field string, v float64, r Range) (float64, error) {
	if err := checkFinite(field, v); err != nil {
		return 0, err
	}
	if !r.Contains(v) {
		return 0, fmt.Errorf("%w: %s=%g not in %s", ErrOutOfRange, field, v, r)
	}
	return v, nil
}

func checkFinite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is not a finite number", ErrInvalidInput, field)
	}
	return nil
}

// checkAllFinite checks values pairwise as (field, value) in declaration order.
func checkAllFinite(fields []string, values ...float64) error {
	for i, v := range values {
		if err := checkFinite(fields[i], v); err != nil {
			return err
		}
	}
	return nil
}

// ChannelLimits declares the legal interval of every ChannelGeometry input.
type ChannelLimits struct {
	Width     Range `json:"width"`
	Depth     Range `json:"depth"`
	Slope     Range `json:"slope"`
	Roughness Range `json:"roughness"`
	SideSlope Range `json:"side_slope"`
}

// DefaultChannelLimits mirrors the ranges offered by the calculator controls.
var DefaultChannelLimits = ChannelLimits{
	Width:     Range{Min: 0.5, Max: 20},
	Depth:     Range{Min: 0.1, Max: 10},
	Slope:     Range{Min: 0.0001, Max: 0.1},
	Roughness: Range{Min: 0.01, Max: 0.05},
	SideSlope: Range{Min: 0, Max: 10},
}

// Validate checks every field of g against the declared intervals.
func (l ChannelLimits) Validate(g ChannelGeometry) error {
	checks := []struct {
		field string
		value float64
		r     Range
	}{
		{"width", g.Width, l.Width},
		{"depth", g.Depth, l.Depth},
		{"slope", g.Slope, l.Slope},
		{"roughness", g.Roughness, l.Roughness},
		{"side_slope", g.SideSlope, l.SideSlope},
	}
	for _, c := range checks {
		if _, err := CheckRange(c.field, c.value, c.r); err != nil {
			return err
		}
	}
	return nil
}

// PipeLimits declares the legal interval of every PipeSegment input.
type PipeLimits struct {
	Length    Range `json:"length"`
	Diameter  Range `json:"diameter"`
	Roughness Range `json:"roughness"`
}

// DefaultPipeLimits covers both Hazen-Williams C values (~60-150) and
// friction-style coefficients (~0.001-0.05).
var DefaultPipeLimits = PipeLimits{
	Length:    Range{Min: 0.1, Max: 100000},
	Diameter:  Range{Min: 0.01, Max: 10},
	Roughness: Range{Min: 0.0001, Max: 200},
}

// Validate checks one segment against the declared intervals.
func (l PipeLimits) Validate(s PipeSegment) error {
	if _, err := CheckRange("length", s.Length, l.Length); err != nil {
		return fmt.Errorf("pipe %s: %w", s.ID, err)
	}
	if _, err := CheckRange("diameter", s.Diameter, l.Diameter); err != nil {
		return fmt.Errorf("pipe %s: %w", s.ID, err)
	}
	if _, err := CheckRange("roughness", s.Roughness, l.Roughness); err != nil {
		return fmt.Errorf("pipe %s: %w", s.ID, err)
	}
	return nil
}

// RunoffLimits declares the legal interval of the numeric RunoffInput fields.
type RunoffLimits struct {
	RainfallDepth Range `json:"rainfall_depth"`
	CatchmentArea Range `json:"catchment_area"`
}

// DefaultRunoffLimits mirrors the ranges offered by the calculator controls.
var DefaultRunoffLimits = RunoffLimits{
	RainfallDepth: Range{Min: 0, Max: 500},
	CatchmentArea: Range{Min: 0.1, Max: 1000},
}

// Validate checks a rainfall depth (mm) and catchment area (ha).
func (l RunoffLimits) Validate(rainfallDepth, catchmentArea float64) error {
	if _, err := CheckRange("rainfall_depth", rainfallDepth, l.RainfallDepth); err != nil {
		return err
	}
	if _, err := CheckRange("catchment_area", catchmentArea, l.CatchmentArea); err != nil {
		return err
	}
	return nil
}
