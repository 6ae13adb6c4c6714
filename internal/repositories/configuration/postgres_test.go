//go:build integration

package configuration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/testsupport"
	"github.com/Ramsey-B/clover/pkg/database"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

func TestPostgresRepository(t *testing.T) {
	db := testsupport.MigratedPostgres(t, "../../../db/pg")
	logger := testsupport.Logger()
	repo := NewRepository(database.NewDatabaseInstance(db.DB, logger), logger)
	ctx := context.Background()

	cfg := newConfiguration("postgres gender blocking")
	require.NoError(t, repo.Create(ctx, cfg))

	got, err := repo.Get(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Rows, got.Rows)

	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, clerrors.ErrNotFound)

	cfg.TotalRecords = 5000
	cfg.EstimatedPairs = 1200
	cfg.Rows[0].Agreement = 0.95
	require.NoError(t, repo.SaveConfiguration(ctx, cfg))

	replaced := newConfiguration("postgres gender blocking")
	replaced.Rows = replaced.Rows[1:]
	require.NoError(t, repo.Upsert(ctx, replaced))
	assert.Equal(t, cfg.ID, replaced.ID)

	configs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Len(t, configs[0].Rows, 1)
	assert.Equal(t, "PersonName.givenName", configs[0].Rows[0].Entry.FieldName)
}
