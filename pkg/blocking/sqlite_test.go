package blocking

import (
	"testing"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

var fixture = []string{
	`CREATE TABLE patient (patient_id INTEGER PRIMARY KEY, allergy_status TEXT, voided INTEGER DEFAULT 0, date_created TEXT)`,
	`CREATE TABLE person (person_id INTEGER PRIMARY KEY, gender TEXT, birthdate TEXT, birthdate_estimated INTEGER DEFAULT 0,
		dead INTEGER DEFAULT 0, death_date TEXT, cause_of_death TEXT, voided INTEGER DEFAULT 0, date_created TEXT)`,
	`CREATE TABLE person_name (person_name_id INTEGER PRIMARY KEY, person_id INTEGER, prefix TEXT, given_name TEXT,
		middle_name TEXT, family_name_prefix TEXT, family_name TEXT, family_name2 TEXT, family_name_suffix TEXT,
		degree TEXT, preferred INTEGER DEFAULT 1, voided INTEGER DEFAULT 0)`,
	`CREATE TABLE patient_identifier_type (patient_identifier_type_id INTEGER PRIMARY KEY, name TEXT, format TEXT)`,
	`CREATE TABLE patient_identifier (patient_identifier_id INTEGER PRIMARY KEY, patient_id INTEGER, identifier TEXT,
		identifier_type INTEGER, location_id INTEGER, preferred INTEGER DEFAULT 0, voided INTEGER DEFAULT 0)`,
	`CREATE TABLE person_attribute_type (person_attribute_type_id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE person_attribute (person_attribute_id INTEGER PRIMARY KEY, person_id INTEGER, value TEXT,
		person_attribute_type_id INTEGER)`,

	`INSERT INTO patient (patient_id) VALUES (1), (2), (3), (4)`,
	`INSERT INTO person (person_id, gender, birthdate) VALUES
		(1, 'M', '1990-01-01'), (2, 'M', '1990-01-01'), (3, 'F', '1990-01-01'), (4, 'M', '1985-05-05')`,
	`INSERT INTO person_name (person_name_id, person_id, given_name, family_name) VALUES
		(1, 1, 'John', 'Smith'), (2, 2, 'Jon', 'Smith'), (3, 3, 'Jane', 'Smith'), (4, 4, 'John', 'Doe')`,
	`INSERT INTO patient_identifier_type (patient_identifier_type_id, name, format) VALUES
		(1, 'OpenMRS ID', 'id-type-A'), (2, 'Old ID', 'id-type-B'), (3, 'Legacy ID', 'id-type-C')`,
	`INSERT INTO patient_identifier (patient_identifier_id, patient_id, identifier, identifier_type) VALUES
		(1, 1, '100', 1), (2, 2, '100', 1), (3, 3, '200', 2), (4, 4, '200', 2), (5, 1, '300', 3), (6, 3, '300', 3)`,
	`INSERT INTO person_attribute_type (person_attribute_type_id, name) VALUES (1, 'Birthplace'), (2, 'Race')`,
	`INSERT INTO person_attribute (person_attribute_id, person_id, value, person_attribute_type_id) VALUES
		(1, 1, 'Kisumu', 1), (2, 4, 'Kisumu', 1), (3, 2, 'Kisumu', 2)`,
}

func openFixture(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range fixture {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return db
}

func TestRender_ExecutesAgainstRecordStore(t *testing.T) {
	db := openFixture(t)

	tests := []struct {
		name        string
		descriptors []string
		want        int64
	}{
		{"no entries counts every patient with a partner", nil, 4},
		{"gender", []string{"Person.gender"}, 3},
		{"gender and birthdate", []string{"Person.gender", "Person.birthdate"}, 2},
		{"family name", []string{"PersonName.familyName"}, 3},
		{"given name", []string{"PersonName.givenName"}, 2},
		{"one identifier type", []string{"(Identifier) id-type-A"}, 2},
		{"two identifier types", []string{"(Identifier) id-type-A", "(Identifier) id-type-B"}, 4},
		{"identifier type and family name", []string{"PersonName.familyName", "(Identifier) id-type-B"}, 0},
		{"attribute type", []string{"(Attribute) Birthplace"}, 2},
	}

	b := newBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.BuildFromDescriptors(tt.descriptors)
			require.NoError(t, err)

			sql, args := Render(q, sqlbuilder.SQLite)
			var got int64
			require.NoError(t, db.Get(&got, sql, args...), sql)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("total records", func(t *testing.T) {
		sql, args := Render(TotalRecords(), sqlbuilder.SQLite)
		var got int64
		require.NoError(t, db.Get(&got, sql, args...))
		assert.Equal(t, int64(4), got)
	})
}
