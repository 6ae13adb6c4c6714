// Package strategy manages stored matching configurations: it keeps their workload
// estimates current and refits their field weights from sampled record pairs.
package strategy

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/analysis"
	"github.com/Ramsey-B/clover/pkg/estimator"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/schema"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Store persists matching configurations
type Store interface {
	Create(ctx context.Context, cfg *models.MatchingConfiguration) error
	Upsert(ctx context.Context, cfg *models.MatchingConfiguration) error
	Get(ctx context.Context, id string) (*models.MatchingConfiguration, error)
	List(ctx context.Context) ([]*models.MatchingConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg *models.MatchingConfiguration) error
}

// Emitter announces configuration changes
type Emitter interface {
	EmitEstimated(ctx context.Context, cfg *models.MatchingConfiguration) error
	EmitWeightsUpdated(ctx context.Context, cfg *models.MatchingConfiguration, prior float64, vectors, iterations int) error
}

// AnalysisResult is the outcome of a weight refit
type AnalysisResult struct {
	Configuration *models.MatchingConfiguration `json:"configuration"`
	Prior         float64                       `json:"prior"`
	Vectors       int                           `json:"vectors"`
	Iterations    int                           `json:"iterations"`
}

type Service struct {
	log       ectologger.Logger
	store     Store
	registry  *schema.Registry
	estimator *estimator.Estimator
	analyzer  *analysis.Analyzer
	emitter   Emitter
}

// NewService creates a strategy service. The estimator must save through store.
func NewService(
	log ectologger.Logger,
	store Store,
	registry *schema.Registry,
	est *estimator.Estimator,
	analyzer *analysis.Analyzer,
	emitter Emitter,
) *Service {
	return &Service{
		log:       log,
		store:     store,
		registry:  registry,
		estimator: est,
		analyzer:  analyzer,
		emitter:   emitter,
	}
}

// Create validates req, computes its initial workload estimate and stores it
func (s *Service) Create(ctx context.Context, req *models.CreateConfigurationRequest) (*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.Create")
	defer span.End()

	cfg, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, cfg); err != nil {
		return nil, err
	}
	s.emitEstimated(ctx, cfg)
	return cfg, nil
}

// Import creates or replaces each configuration by name. It stops at the first failure and
// returns the configurations stored so far.
func (s *Service) Import(ctx context.Context, reqs []*models.CreateConfigurationRequest) ([]*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.Import")
	defer span.End()

	stored := make([]*models.MatchingConfiguration, 0, len(reqs))
	for _, req := range reqs {
		cfg, err := s.prepare(ctx, req)
		if err != nil {
			return stored, err
		}
		if err := s.store.Upsert(ctx, cfg); err != nil {
			return stored, err
		}
		s.emitEstimated(ctx, cfg)
		stored = append(stored, cfg)
	}

	s.log.WithContext(ctx).WithField("configurations", len(stored)).Info("Imported matching configurations")
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.Get")
	defer span.End()

	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.List")
	defer span.End()

	return s.store.List(ctx)
}

// Estimate recomputes the cached estimate of configuration id against the current record count
func (s *Service) Estimate(ctx context.Context, id string) (*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.Estimate")
	defer span.End()

	cfg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.estimator.Recompute(ctx, cfg); err != nil {
		return nil, err
	}
	s.emitEstimated(ctx, cfg)
	return cfg, nil
}

// RefreshAll recomputes every stored configuration whose record-count snapshot is stale
func (s *Service) RefreshAll(ctx context.Context) ([]estimator.RefreshResult, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.RefreshAll")
	defer span.End()

	configs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	results, refreshErr := s.estimator.Refresh(ctx, configs)
	for i, result := range results {
		if result.Recomputed {
			s.emitEstimated(ctx, configs[i])
		}
	}
	if refreshErr != nil {
		return nil, refreshErr
	}
	return results, nil
}

// Analyze refits the m/u weights of configuration id from pairs and stores them.
// iterations below 1 use the analyzer's default.
func (s *Service) Analyze(ctx context.Context, id string, pairs []models.RecordPair, iterations int) (*AnalysisResult, error) {
	ctx, span := tracing.StartSpan(ctx, "strategy.Service.Analyze")
	defer span.End()

	cfg, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := cfg.Clone()
	stream := analysis.NewSlicePairStream(pairs)

	var estimates *analysis.Estimates
	if iterations < 1 {
		estimates, err = s.analyzer.AnalyzeRecordPairs(ctx, stream, updated)
	} else {
		estimates, err = s.analyzer.AnalyzeRecordPairsWithIterations(ctx, stream, updated, iterations)
	}
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveConfiguration(ctx, updated); err != nil {
		return nil, err
	}

	if err := s.emitter.EmitWeightsUpdated(ctx, updated, estimates.P, estimates.Vectors, estimates.Iterations); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("configuration_id", id).Warn("Weights stored but event not published")
	}

	return &AnalysisResult{
		Configuration: updated,
		Prior:         estimates.P,
		Vectors:       estimates.Vectors,
		Iterations:    estimates.Iterations,
	}, nil
}

// TotalRecords counts every record in the store
func (s *Service) TotalRecords(ctx context.Context) (int64, error) {
	return s.estimator.TotalRecords(ctx)
}

// prepare turns req into a validated configuration with a fresh workload estimate
func (s *Service) prepare(ctx context.Context, req *models.CreateConfigurationRequest) (*models.MatchingConfiguration, error) {
	cfg := &models.MatchingConfiguration{
		Name: req.Name,
		Rows: make([]models.ConfigurationRow, len(req.Rows)),
	}
	copy(cfg.Rows, req.Rows)
	for i := range cfg.Rows {
		applyDefaults(&cfg.Rows[i])
		if err := normalizers.Validate(cfg.Rows[i].Normalizers); err != nil {
			return nil, err
		}
	}

	if err := s.registry.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}

	total, err := s.estimator.TotalRecords(ctx)
	if err != nil {
		return nil, err
	}
	estimate, err := s.estimator.EstimateConfiguration(ctx, cfg)
	if err != nil {
		return nil, err
	}
	cfg.TotalRecords = total
	cfg.EstimatedPairs = estimate.PairCount
	cfg.EstimatedTimeMs = estimate.ElapsedMs
	return cfg, nil
}

func applyDefaults(row *models.ConfigurationRow) {
	if row.Agreement == 0 && row.NonAgreement == 0 {
		row.Agreement = models.DefaultAgreement
		row.NonAgreement = models.DefaultNonAgreement
	}
	if row.Algorithm == "" {
		row.Algorithm = models.AlgorithmExact
	}
}

func (s *Service) emitEstimated(ctx context.Context, cfg *models.MatchingConfiguration) {
	if err := s.emitter.EmitEstimated(ctx, cfg); err != nil {
		s.log.WithContext(ctx).WithError(err).WithField("configuration_id", cfg.ID).Warn("Estimate stored but event not published")
	}
}
