package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestParseImportFile(t *testing.T) {
	reqs, err := parseImportFile(strings.NewReader(`
configurations:
  - name: birthdate and gender
    rows:
      - entry: {field_name: Person.birthdate, is_blocking: true}
      - entry: {field_name: "(Identifier) OpenMRS ID", is_blocking: true}
      - entry: {field_name: PersonName.givenName}
        algorithm: jaro_winkler
        threshold: 0.85
        agreement: 0.95
        non_agreement: 0.05
  - name: family name
    rows:
      - entry: {field_name: PersonName.familyName, is_blocking: true}
`))
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	first := reqs[0]
	assert.Equal(t, "birthdate and gender", first.Name)
	require.Len(t, first.Rows, 3)
	assert.True(t, first.Rows[0].Entry.IsBlocking)
	assert.Equal(t, "(Identifier) OpenMRS ID", first.Rows[1].Entry.FieldName)
	assert.Equal(t, models.AlgorithmJaroWinkler, first.Rows[2].Algorithm)
	assert.Equal(t, 0.85, first.Rows[2].Threshold)
	assert.Equal(t, 0.05, first.Rows[2].NonAgreement)
}

func TestParseImportFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty", ``, "no configurations"},
		{"no entries", "configurations: []\n", "no configurations"},
		{"unknown key", "configurations:\n  - name: x\n    colour: red\n", "colour"},
		{"missing rows", "configurations:\n  - name: x\n", "Rows"},
		{"bad algorithm", "configurations:\n  - name: x\n    rows:\n      - entry: {field_name: Person.gender}\n        algorithm: cosine\n", "oneof"},
		{"duplicate names", "configurations:\n  - name: x\n    rows: [{entry: {field_name: Person.gender}}]\n  - name: x\n    rows: [{entry: {field_name: Person.gender}}]\n", "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseImportFile(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
