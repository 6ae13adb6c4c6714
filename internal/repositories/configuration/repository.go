package configuration

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

type ConfigurationRepository interface {
	Create(ctx context.Context, cfg *models.MatchingConfiguration) error
	Upsert(ctx context.Context, cfg *models.MatchingConfiguration) error
	Get(ctx context.Context, id string) (*models.MatchingConfiguration, error)
	GetByName(ctx context.Context, name string) (*models.MatchingConfiguration, error)
	List(ctx context.Context) ([]*models.MatchingConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg *models.MatchingConfiguration) error
}

type Repository struct {
	db     database.DB
	logger ectologger.Logger
	table  *database.Struct
}

// NewRepository creates a repository over PostgreSQL
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return NewRepositoryWithFlavor(db, logger, sqlbuilder.PostgreSQL)
}

func NewRepositoryWithFlavor(db database.DB, logger ectologger.Logger, flavor sqlbuilder.Flavor) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
		table:  database.NewStruct(new(ConfigurationRow), flavor),
	}
}

// Create inserts cfg, assigning its ID and timestamps
func (r *Repository) Create(ctx context.Context, cfg *models.MatchingConfiguration) error {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.Create")
	defer span.End()

	created := cfg.Clone()
	created.ID = uuid.New().String()
	created.CreatedAt = now()
	created.UpdatedAt = created.CreatedAt

	query, args := r.table.InsertInto(configurationTable, FromConfiguration(created)).Build()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   created.ID,
		"name": created.Name,
	})
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		log.WithError(err).Error("error creating matching configuration")
		return clerrors.WrapIO(err, "create matching configuration")
	}

	*cfg = *created
	log.Info("Created matching configuration")
	return nil
}

// Upsert inserts cfg or, when a configuration of the same name exists, replaces its rows and
// cached estimate. cfg receives the stored ID and timestamps.
func (r *Repository) Upsert(ctx context.Context, cfg *models.MatchingConfiguration) error {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.Upsert")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return clerrors.WrapIO(err, "begin transaction")
	}
	defer tx.Rollback(ctx)

	row := cfg.Clone()
	row.ID = uuid.New().String()
	row.CreatedAt = now()
	row.UpdatedAt = row.CreatedAt

	query, args := r.table.Upsert(configurationTable, []string{"name"}, mutableColumns, FromConfiguration(row))
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("name", cfg.Name).Error("error upserting matching configuration")
		return clerrors.WrapIO(err, "upsert matching configuration")
	}

	stored, err := r.getBy(ctx, tx, "name", cfg.Name)
	if err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return clerrors.WrapIO(err, "commit upsert")
	}

	*cfg = *stored
	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   stored.ID,
		"name": stored.Name,
	}).Info("Upserted matching configuration")
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.Get")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, clerrors.NotFoundf("matching configuration %q", id)
	}
	return r.getBy(ctx, r.db, "id", id)
}

func (r *Repository) GetByName(ctx context.Context, name string) (*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.GetByName")
	defer span.End()

	return r.getBy(ctx, r.db, "name", name)
}

type getter interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

func (r *Repository) getBy(ctx context.Context, q getter, column string, value string) (*models.MatchingConfiguration, error) {
	sb := r.table.SelectFrom(configurationTable)
	sb.Where(sb.Equal(column, value))
	query, args := sb.Build()

	var row ConfigurationRow
	if err := q.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.WithContext(ctx).WithField(column, value).Warn("Matching configuration not found")
			return nil, clerrors.NotFoundf("matching configuration %q", value)
		}
		r.logger.WithContext(ctx).WithError(err).WithField(column, value).Error("error getting matching configuration")
		return nil, clerrors.WrapIO(err, "get matching configuration")
	}
	return ToConfiguration(&row), nil
}

// List returns every configuration ordered by name
func (r *Repository) List(ctx context.Context) ([]*models.MatchingConfiguration, error) {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.List")
	defer span.End()

	sb := r.table.SelectFrom(configurationTable)
	sb.OrderBy("name").Asc()
	query, args := sb.Build()

	var rows []ConfigurationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("error listing matching configurations")
		return nil, clerrors.WrapIO(err, "list matching configurations")
	}

	configs := make([]*models.MatchingConfiguration, 0, len(rows))
	for i := range rows {
		configs = append(configs, ToConfiguration(&rows[i]))
	}
	return configs, nil
}

// SaveConfiguration persists the rows and cached estimate of an existing configuration
func (r *Repository) SaveConfiguration(ctx context.Context, cfg *models.MatchingConfiguration) error {
	ctx, span := tracing.StartSpan(ctx, "ConfigurationRepository.SaveConfiguration")
	defer span.End()

	updatedAt := now()
	row := FromConfiguration(cfg)

	ub := r.table.Flavor().NewUpdateBuilder()
	ub.Update(configurationTable).Set(
		ub.Assign("config_rows", row.Rows),
		ub.Assign("total_records", row.TotalRecords),
		ub.Assign("estimated_pairs", row.EstimatedPairs),
		ub.Assign("estimated_time_ms", row.EstimatedTimeMs),
		ub.Assign("updated_at", updatedAt),
	).Where(ub.Equal("id", cfg.ID))
	query, args := ub.Build()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":              cfg.ID,
		"total_records":   cfg.TotalRecords,
		"estimated_pairs": cfg.EstimatedPairs,
	})

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("error saving matching configuration")
		return clerrors.WrapIO(err, "save matching configuration")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return clerrors.NotFoundf("matching configuration %q", cfg.ID)
	}

	cfg.UpdatedAt = updatedAt
	log.Debug("Saved matching configuration")
	return nil
}
