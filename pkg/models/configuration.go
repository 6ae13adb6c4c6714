package models

import (
	"time"

	"github.com/Gobusters/ectolinq"
)

// Category identifies the record schema a configuration entry belongs to
type Category string

const (
	CategoryCoreRecord         Category = "core_record"         // patient
	CategoryDemographicProfile Category = "demographic_profile" // person
	CategoryName               Category = "name"                // person name
	CategoryIdentifier         Category = "identifier"          // patient identifier
	CategoryAttribute          Category = "attribute"           // person attribute, only via the "(Attribute) " tag
)

// Algorithm is the field comparison used to decide agreement for a row
type Algorithm string

const (
	AlgorithmExact           Algorithm = "exact"
	AlgorithmExactIgnoreCase Algorithm = "exact_ignore_case"
	AlgorithmJaroWinkler     Algorithm = "jaro_winkler"
	AlgorithmLevenshtein     Algorithm = "levenshtein"
	AlgorithmSoundex         Algorithm = "soundex"
)

// Default EM starting weights for a new row
const (
	DefaultAgreement    = 0.9
	DefaultNonAgreement = 0.1
)

// ConfigurationEntry is a single field selected for comparison.
// FieldName holds the raw descriptor ("Patient.birthdate", "(Identifier) OpenMRS ID") and is
// the entry's identity; Field and Category are the classification result.
type ConfigurationEntry struct {
	FieldName  string   `json:"field_name" yaml:"field_name" validate:"required"`
	Field      string   `json:"field,omitempty" yaml:"-"`
	Category   Category `json:"category,omitempty" yaml:"-"`
	IsBlocking bool     `json:"is_blocking" yaml:"is_blocking"`
}

// ConfigurationRow pairs an entry with its estimated weights
type ConfigurationRow struct {
	Entry        ConfigurationEntry `json:"entry" yaml:"entry"`
	Agreement    float64            `json:"agreement" yaml:"agreement"`         // m
	NonAgreement float64            `json:"non_agreement" yaml:"non_agreement"` // u
	Algorithm    Algorithm          `json:"algorithm" yaml:"algorithm" validate:"omitempty,oneof=exact exact_ignore_case jaro_winkler levenshtein soundex"`
	Threshold    float64            `json:"threshold" yaml:"threshold" validate:"gte=0,lte=1"`
	Normalizers  []string           `json:"normalizers,omitempty" yaml:"normalizers,omitempty"` // applied in order before comparing
}

// MatchingConfiguration is a deduplication strategy together with its cached workload estimate
type MatchingConfiguration struct {
	ID              string             `json:"id" db:"id"`
	Name            string             `json:"name" db:"name" validate:"required"`
	Rows            []ConfigurationRow `json:"rows" db:"-" validate:"dive"`
	TotalRecords    int64              `json:"total_records" db:"total_records"`
	EstimatedPairs  int64              `json:"estimated_pairs" db:"estimated_pairs"`
	EstimatedTimeMs int64              `json:"estimated_time_ms" db:"estimated_time_ms"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`
}

// Entries returns the configuration entries in row order
func (c *MatchingConfiguration) Entries() []ConfigurationEntry {
	entries := make([]ConfigurationEntry, 0, len(c.Rows))
	for _, row := range c.Rows {
		entries = append(entries, row.Entry)
	}
	return entries
}

// BlockingEntries returns the entries that participate in blocking, in row order
func (c *MatchingConfiguration) BlockingEntries() []ConfigurationEntry {
	blocking := ectolinq.Filter(c.Rows, func(row ConfigurationRow) bool { return row.Entry.IsBlocking })
	return ectolinq.Map(blocking, func(row ConfigurationRow) ConfigurationEntry { return row.Entry })
}

// IncludedColumns returns the field names scored by the matcher, in row order
func (c *MatchingConfiguration) IncludedColumns() []string {
	included := ectolinq.Filter(c.Rows, func(row ConfigurationRow) bool { return !row.Entry.IsBlocking })
	return ectolinq.Map(included, func(row ConfigurationRow) string { return row.Entry.FieldName })
}

// RowIndex returns the index of the row keyed by fieldName, or -1
func (c *MatchingConfiguration) RowIndex(fieldName string) int {
	for i, row := range c.Rows {
		if row.Entry.FieldName == fieldName {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the configuration
func (c *MatchingConfiguration) Clone() *MatchingConfiguration {
	clone := *c
	clone.Rows = make([]ConfigurationRow, len(c.Rows))
	copy(clone.Rows, c.Rows)
	for i := range clone.Rows {
		if c.Rows[i].Normalizers != nil {
			clone.Rows[i].Normalizers = append([]string(nil), c.Rows[i].Normalizers...)
		}
	}
	return &clone
}

// CreateConfigurationRequest is the request body for creating a matching configuration
type CreateConfigurationRequest struct {
	Name string             `json:"name" yaml:"name" validate:"required"`
	Rows []ConfigurationRow `json:"rows" yaml:"rows" validate:"required,min=1,dive"`
}
