package domain

import (
	"fmt"
	"math"
)

const (
	// Gravity is standard gravitational acceleration (m/s²).
	Gravity = 9.81

	// unitWeightWater is ρ·g for water at 1000 kg/m³ (N/m³).
	unitWeightWater = 9810
)

// FlowType classifies open-channel flow by Froude number.
type FlowType string

const (
	FlowSubcritical   FlowType = "Subcritical"
	FlowCritical      FlowType = "Critical"
	FlowSupercritical FlowType = "Supercritical"
)

// ChannelGeometry describes a prismatic open channel. A zero SideSlope is the
// rectangular section.
type ChannelGeometry struct {
	Width     float64 `json:"width" yaml:"width"`                               // bottom width b (m)
	Depth     float64 `json:"depth" yaml:"depth"`                               // flow depth y (m)
	Slope     float64 `json:"slope" yaml:"slope"`                               // bed slope S (m/m)
	Roughness float64 `json:"roughness" yaml:"roughness"`                       // Manning's n
	SideSlope float64 `json:"side_slope,omitempty" yaml:"side_slope,omitempty"` // z, horizontal per unit vertical
}

// FlowResult holds the quantities derived from a ChannelGeometry.
type FlowResult struct {
	Velocity        float64  `json:"velocity"`         // m/s
	Area            float64  `json:"area"`             // m²
	WettedPerimeter float64  `json:"wetted_perimeter"` // m
	HydraulicRadius float64  `json:"hydraulic_radius"` // m
	FroudeNumber    float64  `json:"froude_number"`
	FlowType        FlowType `json:"flow_type"`
	ShearStress     float64  `json:"shear_stress"` // N/m²
	Discharge       float64  `json:"discharge"`    // m³/s
}

// ClassifyFlow maps a Froude number to a flow regime. Equality is exact; there
// is no tolerance band around Fr = 1.
func ClassifyFlow(fr float64) FlowType {
	switch {
	case fr < 1:
		return FlowSubcritical
	case fr > 1:
		return FlowSupercritical
	default:
		return FlowCritical
	}
}

// ComputeOpenChannelFlow applies Manning's equation to a rectangular or
// trapezoidal section.
func ComputeOpenChannelFlow(g ChannelGeometry) (FlowResult, error) {
	if err := checkAllFinite(
		[]string{"width", "depth", "slope", "roughness", "side_slope"},
		g.Width, g.Depth, g.Slope, g.Roughness, g.SideSlope,
	); err != nil {
		return FlowResult{}, err
	}
	if err := validateGeometry(g); err != nil {
		return FlowResult{}, err
	}

	area, perimeter, hydraulicDepth := sectionProperties(g)
	if perimeter == 0 {
		return FlowResult{}, fmt.Errorf("%w: wetted perimeter is zero", ErrDivisionByZero)
	}
	radius := area / perimeter

	velocity := (1.0 / g.Roughness) * math.Pow(radius, 2.0/3.0) * math.Sqrt(g.Slope)
	froude := velocity / math.Sqrt(Gravity*hydraulicDepth)

	return FlowResult{
		Velocity:        velocity,
		Area:            area,
		WettedPerimeter: perimeter,
		HydraulicRadius: radius,
		FroudeNumber:    froude,
		FlowType:        ClassifyFlow(froude),
		ShearStress:     unitWeightWater * radius * g.Slope,
		Discharge:       velocity * area,
	}, nil
}

func validateGeometry(g ChannelGeometry) error {
	switch {
	case g.Width <= 0:
		return fmt.Errorf("%w: width must be positive, got %g", ErrInvalidGeometry, g.Width)
	case g.Depth <= 0:
		return fmt.Errorf("%w: depth must be positive, got %g", ErrInvalidGeometry, g.Depth)
	case g.Roughness <= 0:
		return fmt.Errorf("%w: roughness must be positive, got %g", ErrInvalidGeometry, g.Roughness)
	case g.Slope < 0:
		return fmt.Errorf("%w: slope must not be negative, got %g", ErrInvalidGeometry, g.Slope)
	case g.SideSlope < 0:
		return fmt.Errorf("%w: side slope must not be negative, got %g", ErrInvalidGeometry, g.SideSlope)
	}
	return nil
}

// sectionProperties returns flow area, wetted perimeter and the depth used for
// the Froude number. The rectangular branch keeps A = b·y, P = b + 2y and the
// flow depth itself so results match the textbook formulas exactly.
func sectionProperties(g ChannelGeometry) (area, perimeter, hydraulicDepth float64) {
	b, y, z := g.Width, g.Depth, g.SideSlope
	if z == 0 {
		return b * y, b + 2*y, y
	}
	area = (b + z*y) * y
	perimeter = b + 2*y*math.Sqrt(1+z*z)
	topWidth := b + 2*z*y
	return area, perimeter, area / topWidth
}
