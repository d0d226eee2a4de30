package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HeadLossMethod selects the friction formula applied to every segment of a run.
type HeadLossMethod string

const (
	HazenWilliams HeadLossMethod = "hazen-williams"
	DarcyWeisbach HeadLossMethod = "darcy-weisbach"
)

// ReferenceVelocity is the fixed velocity (m/s) assumed in every pipe. The
// engine does not solve for network velocities.
const ReferenceVelocity = 2.0

// ParseHeadLossMethod accepts the method names in any case, with '-', '_' or
// ' ' separators.
func ParseHeadLossMethod(s string) (HeadLossMethod, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	switch HeadLossMethod(norm) {
	case HazenWilliams, DarcyWeisbach:
		return HeadLossMethod(norm), nil
	default:
		return "", fmt.Errorf("%w: unknown head loss method %q", ErrInvalidInput, s)
	}
}

// PipeSegment is one pipe of a list. FlowRate and HeadLoss are nil until computed.
type PipeSegment struct {
	ID        string   `json:"id" yaml:"id"`
	Length    float64  `json:"length" yaml:"length"`         // L (m)
	Diameter  float64  `json:"diameter" yaml:"diameter"`     // D (m)
	Roughness float64  `json:"roughness" yaml:"roughness"`   // Hazen-Williams C, or friction coefficient
	FlowRate  *float64 `json:"flow_rate,omitempty" yaml:"-"` // m³/s
	HeadLoss  *float64 `json:"head_loss,omitempty" yaml:"-"` // m
}

// PipeNetworkResult is the outcome of evaluating a pipe list with one method.
type PipeNetworkResult struct {
	Method   HeadLossMethod `json:"method"`
	Segments []PipeSegment  `json:"pipes"`
}

// TotalHeadLoss sums the computed head loss of every segment.
func (r PipeNetworkResult) TotalHeadLoss() float64 {
	var total float64
	for _, s := range r.Segments {
		if s.HeadLoss != nil {
			total += *s.HeadLoss
		}
	}
	return total
}

// ComputeSegment returns a copy of seg with FlowRate and HeadLoss populated.
// Each segment is evaluated in isolation at ReferenceVelocity.
func ComputeSegment(seg PipeSegment, method HeadLossMethod) (PipeSegment, error) {
	if err := checkAllFinite(
		[]string{"length", "diameter", "roughness"},
		seg.Length, seg.Diameter, seg.Roughness,
	); err != nil {
		return PipeSegment{}, fmt.Errorf("pipe %s: %w", seg.ID, err)
	}
	switch {
	case seg.Diameter <= 0:
		return PipeSegment{}, fmt.Errorf("%w: pipe %s diameter must be positive, got %g", ErrInvalidPipeParameter, seg.ID, seg.Diameter)
	case seg.Length <= 0:
		return PipeSegment{}, fmt.Errorf("%w: pipe %s length must be positive, got %g", ErrInvalidPipeParameter, seg.ID, seg.Length)
	case seg.Roughness <= 0:
		return PipeSegment{}, fmt.Errorf("%w: pipe %s roughness must be positive, got %g", ErrInvalidPipeParameter, seg.ID, seg.Roughness)
	}

	area := math.Pi * math.Pow(seg.Diameter/2, 2)
	flowRate := ReferenceVelocity * area

	var headLoss float64
	switch method {
	case HazenWilliams:
		headLoss = 10.67 * seg.Length * math.Pow(flowRate, 1.85) /
			(math.Pow(seg.Roughness, 1.85) * math.Pow(seg.Diameter, 4.87))
	case DarcyWeisbach:
		// Roughness is used directly as the friction factor; no Colebrook iteration.
		headLoss = 0.08 * seg.Roughness * math.Pow(ReferenceVelocity, 2) * seg.Length /
			(2 * Gravity * seg.Diameter)
	default:
		return PipeSegment{}, fmt.Errorf("%w: unknown head loss method %q", ErrInvalidInput, string(method))
	}

	out := seg
	out.FlowRate = &flowRate
	out.HeadLoss = &headLoss
	return out, nil
}

// ComputeNetwork evaluates every segment independently, preserving order. The
// first failing segment aborts the run; no partial result is returned.
func ComputeNetwork(segments []PipeSegment, method HeadLossMethod) (PipeNetworkResult, error) {
	method, err := ParseHeadLossMethod(string(method))
	if err != nil {
		return PipeNetworkResult{}, err
	}
	seen := make(map[string]struct{}, len(segments))
	for _, seg := range segments {
		if _, dup := seen[seg.ID]; dup {
			return PipeNetworkResult{}, fmt.Errorf("%w: duplicate pipe id %q", ErrInvalidInput, seg.ID)
		}
		seen[seg.ID] = struct{}{}
	}

	out := make([]PipeSegment, 0, len(segments))
	for _, seg := range segments {
		computed, err := ComputeSegment(seg, method)
		if err != nil {
			return PipeNetworkResult{}, err
		}
		out = append(out, computed)
	}
	return PipeNetworkResult{Method: method, Segments: out}, nil
}

// Defaults for a newly added segment.
const (
	DefaultPipeLength    = 100.0
	DefaultPipeDiameter  = 0.2
	DefaultPipeRoughness = 0.015
)

// PipeList is an ordered, editable list of segments with unique ids.
type PipeList []PipeSegment

// NewPipeList returns a list holding a single default segment with id "1".
func NewPipeList() PipeList {
	return PipeList{defaultSegment("1")}
}

func defaultSegment(id string) PipeSegment {
	return PipeSegment{
		ID:        id,
		Length:    DefaultPipeLength,
		Diameter:  DefaultPipeDiameter,
		Roughness: DefaultPipeRoughness,
	}
}

// NextID returns one more than the largest numeric id in the list, so ids stay
// unique after removals.
func (l PipeList) NextID() string {
	highest := 0
	for _, s := range l {
		if n, err := strconv.Atoi(s.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// WithIDs fills empty ids with sequential ones, leaving existing ids alone.
func (l PipeList) WithIDs() PipeList {
	out := make(PipeList, len(l))
	copy(out, l)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = out.NextID()
		}
	}
	return out
}

// Add appends a default segment with the next sequential id.
func (l PipeList) Add() PipeList {
	out := make(PipeList, len(l), len(l)+1)
	copy(out, l)
	return append(out, defaultSegment(l.NextID()))
}

// Remove deletes the segment with id. Remaining ids are not renumbered.
func (l PipeList) Remove(id string) (PipeList, error) {
	out := make(PipeList, 0, len(l))
	found := false
	for _, s := range l {
		if s.ID == id {
			found = true
			continue
		}
		out = append(out, s)
	}
	if !found {
		return l, fmt.Errorf("%w: no pipe with id %q", ErrInvalidInput, id)
	}
	return out, nil
}

// Update sets one input field ("length", "diameter" or "roughness") of the
// segment with id and clears its computed values.
func (l PipeList) Update(id, field string, value float64) (PipeList, error) {
	out := make(PipeList, len(l))
	copy(out, l)
	for i := range out {
		if out[i].ID != id {
			continue
		}
		switch field {
		case "length":
			out[i].Length = value
		case "diameter":
			out[i].Diameter = value
		case "roughness":
			out[i].Roughness = value
		default:
			return l, fmt.Errorf("%w: unknown pipe field %q", ErrInvalidInput, field)
		}
		out[i].FlowRate = nil
		out[i].HeadLoss = nil
		return out, nil
	}
	return l, fmt.Errorf("%w: no pipe with id %q", ErrInvalidInput, id)
}
