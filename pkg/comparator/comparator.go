// Package comparator decides per-field agreement of candidate record pairs.
package comparator

import (
	"strings"

	"github.com/Ramsey-B/clover/pkg/analysis"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// DefaultThreshold is the similarity at or above which fuzzy algorithms agree
// when a row sets no threshold
const DefaultThreshold = 0.8

// FieldComparator compares every included column with the algorithm of its row.
// Missing values never agree.
type FieldComparator struct{}

// New creates a field comparator
func New() *FieldComparator {
	return &FieldComparator{}
}

// Compare builds the match vector of r1 and r2 under cfg
func (c *FieldComparator) Compare(r1, r2 models.Record, cfg *models.MatchingConfiguration) (*analysis.MatchVector, error) {
	columns := make([]string, 0, len(cfg.Rows))
	agreements := make([]bool, 0, len(cfg.Rows))

	for _, row := range cfg.Rows {
		if row.Entry.IsBlocking {
			continue
		}
		agree, err := Agrees(row, r1.Value(row.Entry.FieldName), r2.Value(row.Entry.FieldName))
		if err != nil {
			return nil, err
		}
		columns = append(columns, row.Entry.FieldName)
		agreements = append(agreements, agree)
	}

	return analysis.NewMatchVector(columns, agreements)
}

// Agrees reports whether a and b agree under row's normalizers, algorithm and threshold
func Agrees(row models.ConfigurationRow, a, b string) (bool, error) {
	if len(row.Normalizers) > 0 {
		a = normalizers.ApplyChain(a, row.Normalizers...)
		b = normalizers.ApplyChain(b, row.Normalizers...)
	}
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false, nil
	}

	threshold := row.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	switch row.Algorithm {
	case "", models.AlgorithmExact:
		return a == b, nil
	case models.AlgorithmExactIgnoreCase:
		return strings.EqualFold(a, b), nil
	case models.AlgorithmJaroWinkler:
		return JaroWinkler(strings.ToLower(a), strings.ToLower(b)) >= threshold, nil
	case models.AlgorithmLevenshtein:
		return Levenshtein(strings.ToLower(a), strings.ToLower(b)) >= threshold, nil
	case models.AlgorithmSoundex:
		code := Soundex(a)
		return code != "" && code == Soundex(b), nil
	default:
		return false, clerrors.InvalidConfigurationf("row %q uses unknown algorithm %q", row.Entry.FieldName, row.Algorithm)
	}
}
