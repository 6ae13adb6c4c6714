// Package analysis estimates Fellegi-Sunter agreement (m) and non-agreement (u) weights
// from unlabelled candidate pairs using Expectation-Maximization.
package analysis

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/Gobusters/ectologger"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	DefaultIterations = 3

	InitialAgreement    = 0.9
	InitialNonAgreement = 0.1
	InitialPrior        = 0.01

	// Final weights are kept strictly inside (0, 1) for log-odds scoring
	EMZero = 0.00001
	EMOne  = 0.99999
)

// Comparator decides per-field agreement for a candidate pair under a configuration
type Comparator interface {
	Compare(r1, r2 models.Record, cfg *models.MatchingConfiguration) (*MatchVector, error)
}

// Estimates is the result of one EM run. M and U are indexed like Columns.
type Estimates struct {
	Columns    []string  `json:"columns"`
	M          []float64 `json:"m"`
	U          []float64 `json:"u"`
	P          float64   `json:"p"`
	Vectors    int       `json:"vectors"`
	Iterations int       `json:"iterations"`
}

// Analyzer runs EM weight estimation
type Analyzer struct {
	logger     ectologger.Logger
	comparator Comparator
	iterations int
}

// NewAnalyzer creates an analyzer. iterations below 1 fall back to DefaultIterations.
func NewAnalyzer(logger ectologger.Logger, comparator Comparator, iterations int) *Analyzer {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &Analyzer{
		logger:     logger,
		comparator: comparator,
		iterations: iterations,
	}
}

// AnalyzeRecordPairs estimates weights with the analyzer's iteration count and writes
// them into cfg's included rows
func (a *Analyzer) AnalyzeRecordPairs(ctx context.Context, stream PairStream, cfg *models.MatchingConfiguration) (*Estimates, error) {
	return a.AnalyzeRecordPairsWithIterations(ctx, stream, cfg, a.iterations)
}

// AnalyzeRecordPairsWithIterations drains stream, compares every pair and fits the weights.
// cfg is left untouched unless the fit succeeds.
func (a *Analyzer) AnalyzeRecordPairsWithIterations(ctx context.Context, stream PairStream, cfg *models.MatchingConfiguration, iterations int) (*Estimates, error) {
	ctx, span := tracing.StartSpan(ctx, "analysis.Analyzer.AnalyzeRecordPairs")
	defer span.End()

	log := a.logger.WithContext(ctx).WithFields(map[string]any{
		"configuration_id": cfg.ID,
		"iterations":       iterations,
	})

	columns := cfg.IncludedColumns()
	if len(columns) == 0 {
		metrics.AnalysisRunsTotal.WithLabelValues("invalid").Inc()
		return nil, clerrors.InvalidConfigurationf("configuration %q has no included columns", cfg.ID)
	}

	var vectors []*MatchVector
	for {
		pair, err := stream.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			metrics.AnalysisRunsTotal.WithLabelValues("error").Inc()
			log.WithError(err).Error("Failed to read record pair")
			return nil, clerrors.WrapIO(err, "read record pair")
		}

		vector, err := a.comparator.Compare(pair.Left, pair.Right, cfg)
		if err != nil {
			metrics.AnalysisRunsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	metrics.AnalysisVectors.Observe(float64(len(vectors)))

	estimates, err := Fit(columns, vectors, iterations)
	if err != nil {
		status := fitStatus(err)
		metrics.AnalysisRunsTotal.WithLabelValues(status).Inc()
		log.WithError(err).WithFields(map[string]any{
			"vectors": len(vectors),
			"status":  status,
		}).Info("EM estimation rejected")
		return nil, err
	}

	for i, column := range estimates.Columns {
		row := &cfg.Rows[cfg.RowIndex(column)]
		row.Agreement = estimates.M[i]
		row.NonAgreement = estimates.U[i]
	}

	metrics.AnalysisRunsTotal.WithLabelValues("success").Inc()
	log.WithFields(map[string]any{
		"vectors": len(vectors),
		"prior":   estimates.P,
	}).Info("Estimated field weights")

	return estimates, nil
}

// fitStatus labels a Fit failure for the runs metric
func fitStatus(err error) string {
	if errors.Is(err, clerrors.ErrInvalidConfiguration) {
		return "invalid"
	}
	return "insufficient"
}

// Fit refines m and u for columns over vectors for exactly iterations rounds and clamps
// the result into [EMZero, EMOne]. Every vector must be aligned with columns.
func Fit(columns []string, vectors []*MatchVector, iterations int) (*Estimates, error) {
	if iterations < 1 {
		return nil, clerrors.InvalidConfigurationf("iterations must be positive, got %d", iterations)
	}
	if len(vectors) == 0 {
		return nil, clerrors.InsufficientDataf("no match vectors")
	}
	for n, v := range vectors {
		if v.Len() != len(columns) {
			return nil, clerrors.InvalidConfigurationf("vector %d has %d fields, want %d", n, v.Len(), len(columns))
		}
		for i, c := range columns {
			if v.Column(i) != c {
				return nil, clerrors.InvalidConfigurationf("vector %d field %d is %q, want %q", n, i, v.Column(i), c)
			}
		}
	}

	fields := len(columns)
	m := make([]float64, fields)
	u := make([]float64, fields)
	msum := make([]float64, fields)
	usum := make([]float64, fields)
	for f := range m {
		m[f] = InitialAgreement
		u[f] = InitialNonAgreement
	}
	p := InitialPrior

	for i := 0; i < iterations; i++ {
		for f := range msum {
			msum[f] = 0
			usum[f] = 0
		}
		var gMsum, gUsum float64

		for _, v := range vectors {
			termM, termU := 1.0, 1.0
			for f := 0; f < fields; f++ {
				if v.At(f) {
					termM *= m[f]
					termU *= u[f]
				} else {
					termM *= 1 - m[f]
					termU *= 1 - u[f]
				}
			}

			gM := (p * termM) / (p*termM + (1-p)*termU)
			gU := ((1 - p) * termU) / ((1-p)*termU + p*termM)
			if !finite(gM) || !finite(gU) {
				return nil, clerrors.InsufficientDataf("posterior undefined in iteration %d", i+1)
			}

			for f := 0; f < fields; f++ {
				if v.At(f) {
					msum[f] += gM
					usum[f] += gU
				}
			}
			gMsum += gM
			gUsum += gU
		}

		if gMsum == 0 || gUsum == 0 {
			return nil, clerrors.InsufficientDataf("posterior mass vanished in iteration %d", i+1)
		}

		p = gMsum / float64(len(vectors))
		for f := 0; f < fields; f++ {
			m[f] = msum[f] / gMsum
			u[f] = usum[f] / gUsum
		}
	}

	for f := 0; f < fields; f++ {
		m[f] = clamp(m[f])
		u[f] = clamp(u[f])
	}

	return &Estimates{
		Columns:    append([]string(nil), columns...),
		M:          m,
		U:          u,
		P:          p,
		Vectors:    len(vectors),
		Iterations: iterations,
	}, nil
}

func clamp(v float64) float64 {
	return math.Min(EMOne, math.Max(EMZero, v))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
