package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hydrocalc/internal/domain"
)

// Calculator runs a decoded calculation request.
type Calculator interface {
	Calculate(ctx context.Context, req domain.CalculationRequest) (domain.ExportRecord, error)
}

// CalculationTransformer implements Transformer by decoding the message value
// as a CalculationRequest and handing it to a Calculator.
type CalculationTransformer struct {
	calc   Calculator
	logger *slog.Logger
}

// NewTransformer creates a CalculationTransformer.
func NewTransformer(calc Calculator, logger *slog.Logger) *CalculationTransformer {
	return &CalculationTransformer{
		calc:   calc,
		logger: logger,
	}
}

func (t *CalculationTransformer) Transform(ctx context.Context, raw domain.RawRequest) (domain.ExportRecord, error) {
	req, err := domain.ParseRequest(raw.Value)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	rec, err := t.calc.Calculate(ctx, req)
	if err != nil {
		return domain.ExportRecord{}, err
	}
	t.logger.DebugContext(ctx, "request computed",
		"kind", rec.Kind, "id", rec.ID, "offset", raw.Offset)
	return rec, nil
}
