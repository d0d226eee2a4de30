package domain

import (
	"encoding/json"
	"fmt"
)

// PipeNetworkInput is the input record of a pipe-network run.
type PipeNetworkInput struct {
	Method HeadLossMethod `json:"method" yaml:"method"`
	Pipes  []PipeSegment  `json:"pipes" yaml:"pipes"`
}

// ComparisonInput is the input record of a land-use comparison.
type ComparisonInput struct {
	RainfallDepth float64   `json:"rainfall_depth" yaml:"rainfall_depth"`
	CatchmentArea float64   `json:"catchment_area" yaml:"catchment_area"`
	SoilGroup     SoilGroup `json:"soil_group" yaml:"soil_group"`
}

// CalculationRequest is a kind-tagged envelope carrying exactly one input record.
type CalculationRequest struct {
	Kind       CalculationKind   `json:"kind"`
	Channel    *ChannelGeometry  `json:"channel,omitempty"`
	Pipes      *PipeNetworkInput `json:"pipe_network,omitempty"`
	Runoff     *RunoffInput      `json:"stormwater,omitempty"`
	Comparison *ComparisonInput  `json:"comparison,omitempty"`
}

// ParseRequest decodes a CalculationRequest and checks that the payload
// matching its kind is present.
func ParseRequest(data []byte) (CalculationRequest, error) {
	var req CalculationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return CalculationRequest{}, fmt.Errorf("%w: parse calculation request: %v", ErrInvalidInput, err)
	}
	if err := req.Validate(); err != nil {
		return CalculationRequest{}, err
	}
	return req, nil
}

// Validate checks the kind and that its payload is the only one present.
func (r CalculationRequest) Validate() error {
	kind, err := ParseKind(string(r.Kind))
	if err != nil {
		return err
	}
	var missing bool
	switch kind {
	case KindOpenChannel:
		missing = r.Channel == nil
	case KindPipeNetwork:
		missing = r.Pipes == nil
	case KindStormwater:
		missing = r.Runoff == nil
	case KindStormwaterComparison:
		missing = r.Comparison == nil
	}
	if missing {
		return fmt.Errorf("%w: %s request has no %s payload", ErrInvalidInput, kind, kind)
	}
	if r.payloads() > 1 {
		return fmt.Errorf("%w: %s request carries a payload for another kind", ErrInvalidInput, kind)
	}
	return nil
}

func (r CalculationRequest) payloads() int {
	n := 0
	for _, present := range []bool{r.Channel != nil, r.Pipes != nil, r.Runoff != nil, r.Comparison != nil} {
		if present {
			n++
		}
	}
	return n
}
