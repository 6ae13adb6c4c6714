package configuration

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

const configurationTable = "matching_configurations"

// mutable columns written by Save and by an upsert on name
var mutableColumns = []string{"config_rows", "total_records", "estimated_pairs", "estimated_time_ms", "updated_at"}

type ConfigurationRow struct {
	ID              sql.NullString                            `db:"id"`
	Name            sql.NullString                            `db:"name"`
	Rows            database.JSONB[[]models.ConfigurationRow] `db:"config_rows"`
	TotalRecords    sql.NullInt64                             `db:"total_records"`
	EstimatedPairs  sql.NullInt64                             `db:"estimated_pairs"`
	EstimatedTimeMs sql.NullInt64                             `db:"estimated_time_ms"`
	CreatedAt       sql.NullTime                              `db:"created_at"`
	UpdatedAt       sql.NullTime                              `db:"updated_at"`
}

func FromConfiguration(cfg *models.MatchingConfiguration) *ConfigurationRow {
	rows := cfg.Rows
	if rows == nil {
		rows = []models.ConfigurationRow{}
	}
	return &ConfigurationRow{
		ID:              sql.NullString{String: cfg.ID, Valid: cfg.ID != ""},
		Name:            sql.NullString{String: cfg.Name, Valid: cfg.Name != ""},
		Rows:            database.JSONB[[]models.ConfigurationRow]{Data: rows},
		TotalRecords:    sql.NullInt64{Int64: cfg.TotalRecords, Valid: true},
		EstimatedPairs:  sql.NullInt64{Int64: cfg.EstimatedPairs, Valid: true},
		EstimatedTimeMs: sql.NullInt64{Int64: cfg.EstimatedTimeMs, Valid: true},
		CreatedAt:       sql.NullTime{Time: cfg.CreatedAt, Valid: !cfg.CreatedAt.IsZero()},
		UpdatedAt:       sql.NullTime{Time: cfg.UpdatedAt, Valid: !cfg.UpdatedAt.IsZero()},
	}
}

func ToConfiguration(row *ConfigurationRow) *models.MatchingConfiguration {
	return &models.MatchingConfiguration{
		ID:              row.ID.String,
		Name:            row.Name.String,
		Rows:            row.Rows.Data,
		TotalRecords:    row.TotalRecords.Int64,
		EstimatedPairs:  row.EstimatedPairs.Int64,
		EstimatedTimeMs: row.EstimatedTimeMs.Int64,
		CreatedAt:       row.CreatedAt.Time.UTC(),
		UpdatedAt:       row.UpdatedAt.Time.UTC(),
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
