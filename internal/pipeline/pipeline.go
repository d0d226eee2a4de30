package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/hydrocalc/internal/domain"
	"github.com/couchcryptid/hydrocalc/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

// BatchExtractor reads up to batchSize raw requests from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawRequest, error)
}

// Transformer computes the export record for a raw request.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawRequest) (domain.ExportRecord, error)
}

// BatchLoader writes multiple export records to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, records []domain.ExportRecord) error
}

// Pipeline orchestrates the extract-compute-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once the pipeline loop is running, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("calculation pipeline is not running")
	}
	return nil
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// retryDelay is the wait before the next cycle after an extract or load failure.
type retryDelay struct {
	current time.Duration
}

func (d *retryDelay) reset() { d.current = initialBackoff }

// wait sleeps for the current delay, then doubles it up to maxBackoff.
// Returns false when ctx ends first.
func (d *retryDelay) wait(ctx context.Context) bool {
	if ctx.Err() != nil || !retry.SleepWithContext(ctx, d.current) {
		return false
	}
	d.current = retry.NextBackoff(d.current, maxBackoff)
	return true
}

// Run executes the batch calculation loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	p.ready.Store(true)
	defer func() {
		p.ready.Store(false)
		p.metrics.PipelineRunning.Set(0)
	}()

	delay := &retryDelay{}
	delay.reset()
	for ctx.Err() == nil {
		if !p.cycle(ctx, delay) {
			break
		}
	}
	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// cycle extracts one batch, computes it and loads the results. Returns false
// when the pipeline should stop.
func (p *Pipeline) cycle(ctx context.Context, delay *retryDelay) bool {
	start := time.Now()

	requests, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	switch {
	case err != nil && ctx.Err() != nil:
		return false
	case err != nil:
		p.logger.Error("extract batch failed", "error", err)
		return delay.wait(ctx)
	case len(requests) == 0:
		return true
	}

	p.metrics.MessagesConsumed.Add(float64(len(requests)))
	p.metrics.BatchSize.Observe(float64(len(requests)))
	delay.reset()

	records, computed := p.compute(ctx, requests)
	if len(records) == 0 {
		return true
	}

	if err := p.loader.LoadBatch(ctx, records); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(records))
		return delay.wait(ctx)
	}
	p.metrics.MessagesProduced.Add(float64(len(records)))
	for _, req := range computed {
		p.commit(ctx, req)
	}
	p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	return true
}

// compute turns each request into an export record. A request that cannot be
// computed is committed immediately and dropped. The returned requests line up
// with the returned records.
func (p *Pipeline) compute(ctx context.Context, requests []domain.RawRequest) ([]domain.ExportRecord, []domain.RawRequest) {
	records := make([]domain.ExportRecord, 0, len(requests))
	computed := make([]domain.RawRequest, 0, len(requests))

	for _, req := range requests {
		rec, err := p.transformer.Transform(ctx, req)
		if err != nil {
			p.logger.Warn("calculation failed, skipping message",
				"error", err,
				"error_kind", domain.ErrorKind(err),
				"topic", req.Topic,
				"partition", req.Partition,
				"offset", req.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commit(ctx, req)
			continue
		}
		records = append(records, rec)
		computed = append(computed, req)
	}
	return records, computed
}

// commit acknowledges a request if its source supports it.
func (p *Pipeline) commit(ctx context.Context, req domain.RawRequest) {
	if req.Commit == nil {
		return
	}
	if err := req.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", req.Topic, "partition", req.Partition, "offset", req.Offset)
	}
}
