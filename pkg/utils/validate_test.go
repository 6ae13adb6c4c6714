package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestValidate_CreateConfigurationRequest(t *testing.T) {
	valid := &models.CreateConfigurationRequest{
		Name: "by gender",
		Rows: []models.ConfigurationRow{
			{Entry: models.ConfigurationEntry{FieldName: "Person.gender", IsBlocking: true}},
			{Entry: models.ConfigurationEntry{FieldName: "PersonName.givenName"}, Algorithm: models.AlgorithmSoundex, Threshold: 0.5},
		},
	}
	_, err := Validate(valid)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(r *models.CreateConfigurationRequest)
		want   string
	}{
		{"missing name", func(r *models.CreateConfigurationRequest) { r.Name = "" }, "Name: failed rule 'required'"},
		{"no rows", func(r *models.CreateConfigurationRequest) { r.Rows = nil }, "Rows: failed rule 'required'"},
		{"unknown algorithm", func(r *models.CreateConfigurationRequest) { r.Rows[1].Algorithm = "cosine" }, "Algorithm: failed rule 'oneof"},
		{"threshold above one", func(r *models.CreateConfigurationRequest) { r.Rows[1].Threshold = 1.5 }, "Threshold: failed rule 'lte=1'"},
		{"empty field name", func(r *models.CreateConfigurationRequest) { r.Rows[0].Entry.FieldName = "" }, "FieldName: failed rule 'required'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := *valid
			req.Rows = append([]models.ConfigurationRow(nil), valid.Rows...)
			tt.mutate(&req)

			_, err := Validate(&req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
