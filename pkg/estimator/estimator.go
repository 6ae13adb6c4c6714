// Package estimator predicts the comparison workload of a blocking configuration and keeps
// each configuration's cached estimate fresh.
package estimator

import (
	"context"
	"math"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"

	"github.com/Ramsey-B/clover/pkg/blocking"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// DefaultStaleFraction is the record-count drift above which a cached estimate is recomputed
const DefaultStaleFraction = 0.1

// Counter executes count queries against the record store
type Counter interface {
	CountRows(ctx context.Context, q *blocking.CountQuery) (int64, error)
}

// Saver persists a configuration after its estimate was recomputed
type Saver interface {
	SaveConfiguration(ctx context.Context, cfg *models.MatchingConfiguration) error
}

// Estimate is the outcome of one workload estimation
type Estimate struct {
	PairCount int64 `json:"pair_count"`
	ElapsedMs int64 `json:"elapsed_ms"`
}

// RefreshResult reports what Refresh did with a single configuration
type RefreshResult struct {
	ConfigurationID string    `json:"configuration_id"`
	Recomputed      bool      `json:"recomputed"`
	Drift           int64     `json:"drift"`
	TotalRecords    int64     `json:"total_records"`
	Estimate        *Estimate `json:"estimate,omitempty"`
}

// Config contains configuration for the estimator
type Config struct {
	StaleFraction      float64 // Drift fraction that triggers recomputation (default: 0.1)
	RefreshConcurrency int     // Configurations recomputed in parallel by Refresh (default: 1)
}

// DefaultConfig returns default estimator configuration
func DefaultConfig() Config {
	return Config{
		StaleFraction:      DefaultStaleFraction,
		RefreshConcurrency: 1,
	}
}

// Estimator runs workload estimates. It holds no per-call state and is safe for
// concurrent use as long as callers do not share configurations between calls.
type Estimator struct {
	logger  ectologger.Logger
	builder *blocking.Builder
	counter Counter
	saver   Saver
	cfg     Config
	now     func() time.Time
}

// New creates an estimator
func New(logger ectologger.Logger, builder *blocking.Builder, counter Counter, saver Saver, cfg Config) *Estimator {
	if cfg.StaleFraction <= 0 {
		cfg.StaleFraction = DefaultStaleFraction
	}
	if cfg.RefreshConcurrency < 1 {
		cfg.RefreshConcurrency = 1
	}
	return &Estimator{
		logger:  logger,
		builder: builder,
		counter: counter,
		saver:   saver,
		cfg:     cfg,
		now:     time.Now,
	}
}

// WithClock replaces the clock used to time count queries
func (e *Estimator) WithClock(now func() time.Time) *Estimator {
	e.now = now
	return e
}

// Estimate counts the workload produced by blocking on entries
func (e *Estimator) Estimate(ctx context.Context, entries []models.ConfigurationEntry) (Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "estimator.Estimator.Estimate")
	defer span.End()

	startedAt := e.now()

	q, err := e.builder.Build(entries)
	if err != nil {
		return Estimate{}, err
	}
	if err := blocking.Validate(q); err != nil {
		return Estimate{}, err
	}

	count, err := e.counter.CountRows(ctx, q)
	if err != nil {
		metrics.CountQueriesTotal.WithLabelValues("pairs", "error").Inc()
		return Estimate{}, clerrors.WrapIO(err, "count blocking pairs")
	}

	elapsed := e.now().Sub(startedAt)
	metrics.CountQueriesTotal.WithLabelValues("pairs", "success").Inc()
	metrics.CountQueryDuration.WithLabelValues("pairs").Observe(elapsed.Seconds())

	e.logger.WithContext(ctx).WithFields(map[string]any{
		"blocking_fields": len(entries),
		"pair_estimate":   count,
		"elapsed_ms":      elapsed.Milliseconds(),
	}).Debug("Estimated blocking workload")

	return Estimate{PairCount: count, ElapsedMs: elapsed.Milliseconds()}, nil
}

// EstimateConfiguration estimates the workload of cfg's blocking entries
func (e *Estimator) EstimateConfiguration(ctx context.Context, cfg *models.MatchingConfiguration) (Estimate, error) {
	return e.Estimate(ctx, cfg.BlockingEntries())
}

// TotalRecords counts every record in the store
func (e *Estimator) TotalRecords(ctx context.Context) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "estimator.Estimator.TotalRecords")
	defer span.End()

	startedAt := e.now()
	count, err := e.counter.CountRows(ctx, blocking.TotalRecords())
	if err != nil {
		metrics.CountQueriesTotal.WithLabelValues("total", "error").Inc()
		return 0, clerrors.WrapIO(err, "count total records")
	}
	metrics.CountQueriesTotal.WithLabelValues("total", "success").Inc()
	metrics.CountQueryDuration.WithLabelValues("total").Observe(e.now().Sub(startedAt).Seconds())
	return count, nil
}

// IsStale reports whether the drift between cached and current exceeds fraction of cached
func IsStale(cached, current int64, fraction float64) bool {
	drift := math.Abs(float64(current - cached))
	return drift > fraction*float64(cached)
}

// Refresh recomputes the cached estimate of every configuration whose record-count snapshot
// has drifted by more than the stale fraction. A configuration is only overwritten after its
// new estimate was saved, so a failure leaves its previous cache intact. The first failure
// aborts the refresh: configurations not yet started are skipped, and the results gathered so
// far are returned with the error so callers can still act on the ones that were saved.
func (e *Estimator) Refresh(ctx context.Context, configs []*models.MatchingConfiguration) ([]RefreshResult, error) {
	ctx, span := tracing.StartSpan(ctx, "estimator.Estimator.Refresh")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"method":         "Refresh",
		"configurations": len(configs),
	})

	total, err := e.TotalRecords(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count total records")
		return nil, err
	}

	results := make([]RefreshResult, len(configs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.RefreshConcurrency)

	for i, cfg := range configs {
		drift := total - cfg.TotalRecords
		if drift < 0 {
			drift = -drift
		}
		results[i] = RefreshResult{ConfigurationID: cfg.ID, Drift: drift, TotalRecords: total}

		if !IsStale(cfg.TotalRecords, total, e.cfg.StaleFraction) {
			metrics.RefreshesTotal.WithLabelValues("skipped").Inc()
			continue
		}
		if gctx.Err() != nil {
			continue
		}

		g.Go(func() error {
			// a slot frees up only after a failed run has cancelled gctx
			if err := gctx.Err(); err != nil {
				return err
			}
			estimate, err := e.recompute(gctx, cfg, total)
			if err != nil {
				metrics.RefreshesTotal.WithLabelValues("failed").Inc()
				log.WithError(err).WithFields(map[string]any{"configuration_id": cfg.ID}).Error("Failed to refresh estimate")
				return err
			}
			metrics.RefreshesTotal.WithLabelValues("recomputed").Inc()
			results[i].Recomputed = true
			results[i].Estimate = &estimate
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	log.WithFields(map[string]any{"total_records": total}).Info("Refreshed workload estimates")
	return results, nil
}

// Recompute refreshes cfg's cached estimate against the current record count regardless of
// drift. cfg is only overwritten after the new estimate was saved.
func (e *Estimator) Recompute(ctx context.Context, cfg *models.MatchingConfiguration) (Estimate, error) {
	ctx, span := tracing.StartSpan(ctx, "estimator.Estimator.Recompute")
	defer span.End()

	total, err := e.TotalRecords(ctx)
	if err != nil {
		return Estimate{}, err
	}
	estimate, err := e.recompute(ctx, cfg, total)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return Estimate{}, err
	}
	metrics.RefreshesTotal.WithLabelValues("recomputed").Inc()
	return estimate, nil
}

func (e *Estimator) recompute(ctx context.Context, cfg *models.MatchingConfiguration, total int64) (Estimate, error) {
	estimate, err := e.EstimateConfiguration(ctx, cfg)
	if err != nil {
		return Estimate{}, err
	}

	updated := cfg.Clone()
	updated.EstimatedPairs = estimate.PairCount
	updated.EstimatedTimeMs = estimate.ElapsedMs
	updated.TotalRecords = total

	if e.saver != nil {
		if err := e.saver.SaveConfiguration(ctx, updated); err != nil {
			return Estimate{}, clerrors.WrapIO(err, "save configuration")
		}
	}

	*cfg = *updated
	return estimate, nil
}
