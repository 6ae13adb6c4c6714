//go:build integration

package patient

import (
	"context"
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/internal/testsupport"
	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/schema"
)

var recordStore = []string{
	`CREATE TABLE patient (patient_id INT PRIMARY KEY, allergy_status TEXT, voided BOOLEAN DEFAULT false, date_created TIMESTAMP)`,
	`CREATE TABLE person (person_id INT PRIMARY KEY, gender TEXT, birthdate DATE, birthdate_estimated BOOLEAN DEFAULT false,
		dead BOOLEAN DEFAULT false, death_date DATE, cause_of_death TEXT, voided BOOLEAN DEFAULT false, date_created TIMESTAMP)`,
	`CREATE TABLE person_name (person_name_id INT PRIMARY KEY, person_id INT, prefix TEXT, given_name TEXT,
		middle_name TEXT, family_name_prefix TEXT, family_name TEXT, family_name2 TEXT, family_name_suffix TEXT,
		degree TEXT, preferred BOOLEAN DEFAULT true, voided BOOLEAN DEFAULT false)`,
	`INSERT INTO patient (patient_id) VALUES (1), (2), (3), (4)`,
	`INSERT INTO person (person_id, gender, birthdate) VALUES
		(1, 'M', '1990-01-01'), (2, 'M', '1990-01-01'), (3, 'F', '1990-01-01'), (4, 'M', '1985-05-05')`,
	`INSERT INTO person_name (person_name_id, person_id, given_name, family_name) VALUES
		(1, 1, 'John', 'Smith'), (2, 2, 'Jon', 'Smith'), (3, 3, 'Jane', 'Smith'), (4, 4, 'John', 'Doe')`,
}

func TestPostgresCountRows(t *testing.T) {
	db := testsupport.Postgres(t)
	for _, stmt := range recordStore {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	logger := testsupport.Logger()
	repo := NewRepository(database.NewDatabaseInstance(db.DB, logger), logger, sqlbuilder.PostgreSQL)
	b := blocking.NewBuilder(schema.Default())
	ctx := context.Background()

	total, err := repo.CountRows(ctx, blocking.TotalRecords())
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	tests := []struct {
		descriptors []string
		want        int64
	}{
		{[]string{"Person.gender"}, 3},
		{[]string{"Person.gender", "Person.birthdate"}, 2},
		{[]string{"PersonName.familyName"}, 3},
	}
	for _, tt := range tests {
		q, err := b.BuildFromDescriptors(tt.descriptors)
		require.NoError(t, err)
		pairs, err := repo.CountRows(ctx, q)
		require.NoError(t, err, tt.descriptors)
		assert.Equal(t, tt.want, pairs, tt.descriptors)
	}
}
