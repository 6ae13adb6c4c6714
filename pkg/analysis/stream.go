package analysis

import (
	"context"
	"io"

	"github.com/Ramsey-B/clover/pkg/models"
)

// PairStream supplies candidate record pairs. Next returns io.EOF once the stream is exhausted.
type PairStream interface {
	Next(ctx context.Context) (models.RecordPair, error)
}

// SlicePairStream streams pairs held in memory
type SlicePairStream struct {
	pairs []models.RecordPair
	pos   int
}

// NewSlicePairStream creates a stream over pairs
func NewSlicePairStream(pairs []models.RecordPair) *SlicePairStream {
	return &SlicePairStream{pairs: pairs}
}

// Next returns the next pair
func (s *SlicePairStream) Next(ctx context.Context) (models.RecordPair, error) {
	if err := ctx.Err(); err != nil {
		return models.RecordPair{}, err
	}
	if s.pos >= len(s.pairs) {
		return models.RecordPair{}, io.EOF
	}
	pair := s.pairs[s.pos]
	s.pos++
	return pair, nil
}
