package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchingConfiguration_SplitsBlockingColumns(t *testing.T) {
	cfg := &MatchingConfiguration{Rows: []ConfigurationRow{
		{Entry: ConfigurationEntry{FieldName: "Patient.gender", IsBlocking: true}},
		{Entry: ConfigurationEntry{FieldName: "PersonName.givenName"}},
		{Entry: ConfigurationEntry{FieldName: "Patient.birthdate", IsBlocking: true}},
		{Entry: ConfigurationEntry{FieldName: "PersonName.familyName"}},
	}}

	blocking := cfg.BlockingEntries()
	if assert.Len(t, blocking, 2) {
		assert.Equal(t, "Patient.gender", blocking[0].FieldName)
		assert.Equal(t, "Patient.birthdate", blocking[1].FieldName)
	}
	assert.Equal(t, []string{"PersonName.givenName", "PersonName.familyName"}, cfg.IncludedColumns())
}

func TestMatchingConfiguration_NoBlockingRows(t *testing.T) {
	cfg := &MatchingConfiguration{Rows: []ConfigurationRow{
		{Entry: ConfigurationEntry{FieldName: "PersonName.givenName"}},
	}}

	assert.Empty(t, cfg.BlockingEntries())
	assert.Equal(t, []string{"PersonName.givenName"}, cfg.IncludedColumns())
}
