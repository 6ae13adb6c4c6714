// Package patient counts rows in the OpenMRS record store.
package patient

import (
	"context"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/database"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
	flavor sqlbuilder.Flavor
}

// NewRepository creates a counter over the record store reached through db
func NewRepository(db database.DB, logger ectologger.Logger, flavor sqlbuilder.Flavor) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		flavor: flavor,
	}
}

// CountRows renders q for the store's SQL flavor and returns the single count it selects
func (r *Repository) CountRows(ctx context.Context, q *blocking.CountQuery) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "PatientRepository.CountRows")
	defer span.End()

	query, args := blocking.Render(q, r.flavor)

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"query": query,
		"args":  len(args),
	}).Debug("Counting records")

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("query", query).Error("error counting records")
		return 0, clerrors.WrapIO(err, "count records")
	}
	return count, nil
}
