// Package domain is the hydraulic computation engine: open-channel flow by
// Manning's equation, per-pipe friction head loss, and SCS Curve-Number runoff.
//
// Every operation is a pure function over value records. There is no shared
// mutable state other than the curve-number table, which is fixed at package
// initialization and only read afterwards, so calls are safe from any number
// of goroutines without locking.
//
// # Units
//
// All quantities are SI unless noted: lengths in metres, velocities in m/s,
// discharges in m³/s, shear stress in N/m². Rainfall and runoff depths are in
// millimetres and catchment areas in hectares; runoff volume is in m³.
//
// # Open Channel Flow
//
// For a rectangular section of bottom width b and depth y:
//
//	A  = b·y
//	P  = b + 2y
//	R  = A/P
//	V  = (1/n)·R^(2/3)·S^(1/2)
//	Fr = V / sqrt(g·y)          g = 9.81 m/s²
//	τ  = 9810·R·S               ρ·g for water
//
// Flow is Subcritical for Fr < 1, Supercritical for Fr > 1 and Critical only
// when Fr is exactly 1. A non-zero side slope z switches to the trapezoidal
// section A = (b+zy)y, P = b + 2y·sqrt(1+z²), with the Froude number taken over
// the hydraulic depth A/T.
//
// # Pipe Segments
//
// Each segment is evaluated on its own at a fixed reference velocity of
// 2.0 m/s. There is no nodal continuity or loop balancing.
//
//	Hazen-Williams:  hf = 10.67·L·Q^1.85 / (C^1.85·D^4.87)
//	Darcy-Weisbach:  hf = 0.08·C·V²·L / (2·g·D)
//
// The second form uses the roughness coefficient directly as a friction
// factor. It is a simplification carried over from the calculator and is not
// the Colebrook-based procedure.
//
// # Stormwater Runoff
//
// The curve number comes from a fixed land-use × hydrologic-soil-group table
// (see [LandUses]):
//
//	S  = 25400/CN − 254
//	Ia = 0.2·S
//	Q  = (P−Ia)² / (P−Ia+S)  if P > Ia, else 0
//
// # Validation
//
// Solvers reject non-finite values with [ErrInvalidInput] and physically
// impossible values with a kind-specific error. The declared input intervals
// ([DefaultChannelLimits], [DefaultPipeLimits], [DefaultRunoffLimits]) are
// applied by callers before computing; values outside them fail with
// [ErrOutOfRange]. Nothing is clamped or defaulted silently.
package domain
