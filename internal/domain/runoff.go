package domain

import (
	"fmt"
	"math"
)

// RunoffInput is a single-event SCS Curve-Number runoff problem.
type RunoffInput struct {
	RainfallDepth float64   `json:"rainfall_depth" yaml:"rainfall_depth"` // P (mm)
	CatchmentArea float64   `json:"catchment_area" yaml:"catchment_area"` // ha
	LandUse       string    `json:"land_use" yaml:"land_use"`             // table key or label
	SoilGroup     SoilGroup `json:"soil_group" yaml:"soil_group"`
}

// RunoffResult holds the SCS-CN intermediate and final quantities.
type RunoffResult struct {
	CurveNumber        float64 `json:"curve_number"`
	RetentionParameter float64 `json:"retention_parameter"` // S (mm)
	InitialAbstraction float64 `json:"initial_abstraction"` // Ia (mm)
	RunoffDepth        float64 `json:"runoff_depth"`        // Q (mm)
	RunoffVolume       float64 `json:"runoff_volume"`       // m³
}

// RunoffComparison is one row of the land-use comparison table.
type RunoffComparison struct {
	LandUse      string  `json:"land_use"`
	Name         string  `json:"name"`
	CurveNumber  float64 `json:"curve_number"`
	RunoffDepth  float64 `json:"runoff_depth"`
	RunoffVolume float64 `json:"runoff_volume"`
}

// ComputeRunoff looks up the curve number for the input's land use and soil
// group and estimates runoff depth and volume.
func ComputeRunoff(in RunoffInput) (RunoffResult, error) {
	if err := validateRunoffInput(in.RainfallDepth, in.CatchmentArea); err != nil {
		return RunoffResult{}, err
	}
	cn, err := LookupCurveNumber(in.LandUse, in.SoilGroup)
	if err != nil {
		return RunoffResult{}, err
	}
	return ComputeRunoffForCurveNumber(in.RainfallDepth, in.CatchmentArea, cn)
}

// ComputeRunoffForCurveNumber applies the SCS-CN method with an explicit CN:
//
//	S  = 25400/CN - 254
//	Ia = 0.2·S
//	Q  = (P-Ia)² / (P-Ia+S)   when P > Ia, otherwise 0
//	V  = Q·area·10            (1 mm over 1 ha = 10 m³)
func ComputeRunoffForCurveNumber(rainfallDepth, catchmentArea, cn float64) (RunoffResult, error) {
	if err := validateRunoffInput(rainfallDepth, catchmentArea); err != nil {
		return RunoffResult{}, err
	}
	if math.IsNaN(cn) || math.IsInf(cn, 0) {
		return RunoffResult{}, fmt.Errorf("%w: curve number is not a finite number", ErrInvalidInput)
	}
	if cn <= 0 || cn > 100 {
		return RunoffResult{}, fmt.Errorf("%w: %g not in (0, 100]", ErrInvalidCurveNumber, cn)
	}

	s := 25400/cn - 254
	ia := 0.2 * s

	var q float64
	if p := rainfallDepth; p > ia {
		q = math.Pow(p-ia, 2) / (p - ia + s)
	}

	return RunoffResult{
		CurveNumber:        cn,
		RetentionParameter: s,
		InitialAbstraction: ia,
		RunoffDepth:        q,
		RunoffVolume:       q * catchmentArea * 10,
	}, nil
}

// CompareLandUses evaluates the same rainfall and area against every land-use
// entry for one soil group, in table order. The group is matched without
// regard to case.
func CompareLandUses(rainfallDepth, catchmentArea float64, group SoilGroup) ([]RunoffComparison, error) {
	g, err := ParseSoilGroup(string(group))
	if err != nil {
		return nil, err
	}
	rows := make([]RunoffComparison, 0, len(landUseTable))
	for _, entry := range landUseTable {
		cn, err := entry.CurveNumbers.For(g)
		if err != nil {
			return nil, err
		}
		res, err := ComputeRunoffForCurveNumber(rainfallDepth, catchmentArea, cn)
		if err != nil {
			return nil, fmt.Errorf("land use %s: %w", entry.Key, err)
		}
		rows = append(rows, RunoffComparison{
			LandUse:      entry.Key,
			Name:         entry.Name(),
			CurveNumber:  cn,
			RunoffDepth:  res.RunoffDepth,
			RunoffVolume: res.RunoffVolume,
		})
	}
	return rows, nil
}

func validateRunoffInput(rainfallDepth, catchmentArea float64) error {
	if err := checkAllFinite(
		[]string{"rainfall_depth", "catchment_area"},
		rainfallDepth, catchmentArea,
	); err != nil {
		return err
	}
	if rainfallDepth < 0 {
		return fmt.Errorf("%w: rainfall depth must not be negative, got %g", ErrInvalidInput, rainfallDepth)
	}
	if catchmentArea <= 0 {
		return fmt.Errorf("%w: catchment area must be positive, got %g", ErrInvalidInput, catchmentArea)
	}
	return nil
}
