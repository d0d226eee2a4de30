package calc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
)

// Service runs every calculation through the same sequence: range checks
// against the declared intervals, solver, export assembly. It is safe for
// concurrent use.
//
// Results are cached by kind and input. Callers own the values they receive and
// may modify them freely.
type Service struct {
	cache   *resultCache
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Service. A cacheSize of zero disables result caching.
func New(logger *slog.Logger, metrics *observability.Metrics, cacheSize int) *Service {
	return &Service{
		cache:   newResultCache(cacheSize),
		logger:  logger,
		metrics: metrics,
	}
}

// LandUses returns the curve-number table.
func (s *Service) LandUses() []domain.LandUseEntry {
	return domain.LandUses()
}

// OpenChannel computes uniform flow in a channel section.
func (s *Service) OpenChannel(ctx context.Context, g domain.ChannelGeometry) (domain.FlowResult, domain.ExportRecord, error) {
	return run(ctx, s, domain.KindOpenChannel, g, func(g domain.ChannelGeometry) (domain.FlowResult, error) {
		if err := domain.DefaultChannelLimits.Validate(g); err != nil {
			return domain.FlowResult{}, err
		}
		return domain.ComputeOpenChannelFlow(g)
	})
}

// PipeNetwork computes flow rate and head loss for every segment of a pipe list.
// Segments without an id get the next sequential one, and computed fields on
// the input segments are ignored.
func (s *Service) PipeNetwork(ctx context.Context, in domain.PipeNetworkInput) (domain.PipeNetworkResult, domain.ExportRecord, error) {
	method, err := domain.ParseHeadLossMethod(string(in.Method))
	if err != nil {
		s.recordFailure(ctx, domain.KindPipeNetwork, err)
		return domain.PipeNetworkResult{}, domain.ExportRecord{}, err
	}
	normalized := domain.PipeNetworkInput{Method: method, Pipes: stripComputed(domain.PipeList(in.Pipes).WithIDs())}

	return run(ctx, s, domain.KindPipeNetwork, normalized, func(in domain.PipeNetworkInput) (domain.PipeNetworkResult, error) {
		for _, seg := range in.Pipes {
			if err := domain.DefaultPipeLimits.Validate(seg); err != nil {
				return domain.PipeNetworkResult{}, err
			}
		}
		return domain.ComputeNetwork(in.Pipes, in.Method)
	})
}

// Stormwater estimates runoff for one land use and soil group.
func (s *Service) Stormwater(ctx context.Context, in domain.RunoffInput) (domain.RunoffResult, domain.ExportRecord, error) {
	if g, err := domain.ParseSoilGroup(string(in.SoilGroup)); err == nil {
		in.SoilGroup = g
	}
	return run(ctx, s, domain.KindStormwater, in, func(in domain.RunoffInput) (domain.RunoffResult, error) {
		if err := domain.DefaultRunoffLimits.Validate(in.RainfallDepth, in.CatchmentArea); err != nil {
			return domain.RunoffResult{}, err
		}
		return domain.ComputeRunoff(in)
	})
}

// CompareLandUses evaluates one rainfall event against every land use.
func (s *Service) CompareLandUses(ctx context.Context, in domain.ComparisonInput) ([]domain.RunoffComparison, domain.ExportRecord, error) {
	if g, err := domain.ParseSoilGroup(string(in.SoilGroup)); err == nil {
		in.SoilGroup = g
	}
	return run(ctx, s, domain.KindStormwaterComparison, in, func(in domain.ComparisonInput) ([]domain.RunoffComparison, error) {
		if err := domain.DefaultRunoffLimits.Validate(in.RainfallDepth, in.CatchmentArea); err != nil {
			return nil, err
		}
		return domain.CompareLandUses(in.RainfallDepth, in.CatchmentArea, in.SoilGroup)
	})
}

// Calculate dispatches an envelope to the matching calculation.
func (s *Service) Calculate(ctx context.Context, req domain.CalculationRequest) (domain.ExportRecord, error) {
	if err := req.Validate(); err != nil {
		kind := req.Kind
		if _, kindErr := domain.ParseKind(string(kind)); kindErr != nil {
			kind = "unknown"
		}
		s.recordFailure(ctx, kind, err)
		return domain.ExportRecord{}, err
	}

	var (
		rec domain.ExportRecord
		err error
	)
	switch req.Kind {
	case domain.KindOpenChannel:
		_, rec, err = s.OpenChannel(ctx, *req.Channel)
	case domain.KindPipeNetwork:
		_, rec, err = s.PipeNetwork(ctx, *req.Pipes)
	case domain.KindStormwater:
		_, rec, err = s.Stormwater(ctx, *req.Runoff)
	case domain.KindStormwaterComparison:
		_, rec, err = s.CompareLandUses(ctx, *req.Comparison)
	}
	return rec, err
}

// run wraps a single calculation with caching, metrics, logging and export
// assembly. Every returned result is freshly allocated, including on a cache hit.
func run[I, R any](ctx context.Context, s *Service, kind domain.CalculationKind, input I, compute func(I) (R, error)) (R, domain.ExportRecord, error) {
	var zero R
	start := time.Now()
	defer func() {
		s.metrics.CalculationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	key, keyErr := cacheKey(kind, input)
	if keyErr == nil && s.cache != nil {
		if encoded, ok := s.cache.get(key); ok {
			var result R
			if err := json.Unmarshal(encoded, &result); err == nil {
				s.metrics.ResultCache.WithLabelValues(string(kind), "hit").Inc()
				return assemble(ctx, s, kind, input, result)
			}
		}
		s.metrics.ResultCache.WithLabelValues(string(kind), "miss").Inc()
	}

	result, err := compute(input)
	if err != nil {
		s.recordFailure(ctx, kind, err)
		return zero, domain.ExportRecord{}, err
	}
	if keyErr == nil && s.cache != nil {
		if encoded, err := json.Marshal(result); err == nil {
			s.cache.put(key, encoded)
		}
	}
	return assemble(ctx, s, kind, input, result)
}

func assemble[R any](ctx context.Context, s *Service, kind domain.CalculationKind, input any, result R) (R, domain.ExportRecord, error) {
	var zero R
	rec, err := domain.AssembleExport(kind, input, result)
	if err != nil {
		s.recordFailure(ctx, kind, err)
		return zero, domain.ExportRecord{}, err
	}
	s.metrics.Calculations.WithLabelValues(string(kind), "success").Inc()
	s.logger.DebugContext(ctx, "calculation complete", "kind", kind, "id", rec.ID)
	return result, rec, nil
}

func (s *Service) recordFailure(ctx context.Context, kind domain.CalculationKind, err error) {
	errKind := domain.ErrorKind(err)
	s.metrics.Calculations.WithLabelValues(string(kind), "error").Inc()
	s.metrics.CalculationErrors.WithLabelValues(string(kind), errKind).Inc()

	if domain.IsValidationError(err) {
		s.logger.InfoContext(ctx, "calculation rejected", "kind", kind, "error_kind", errKind, "error", err)
		return
	}
	s.logger.ErrorContext(ctx, "calculation failed", "kind", kind, "error", err)
}

func cacheKey(kind domain.CalculationKind, input any) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("cache key: %w", err)
	}
	return string(kind) + "|" + string(data), nil
}

func stripComputed(pipes []domain.PipeSegment) []domain.PipeSegment {
	out := make([]domain.PipeSegment, len(pipes))
	for i, p := range pipes {
		p.FlowRate = nil
		p.HeadLoss = nil
		out[i] = p
	}
	return out
}
