// Package schema declares the record fields that may be used in a matching configuration
// and classifies configuration entry descriptors against them.
package schema

import (
	"github.com/Ramsey-B/clover/pkg/models"
)

// Field is a comparable record field and the column that stores it
type Field struct {
	Name   string
	Column string
}

// Table describes where a category's fields live
type Table struct {
	Name string
	// LinkColumn joins the table back to patient.patient_id
	LinkColumn string
}

// Precedence is the order in which untagged entries are resolved
var Precedence = []models.Category{
	models.CategoryCoreRecord,
	models.CategoryDemographicProfile,
	models.CategoryName,
	models.CategoryIdentifier,
}

// Registry maps each category to its valid fields. It is read-only after construction.
type Registry struct {
	tables map[models.Category]Table
	fields map[models.Category]map[string]Field
}

// NewRegistry creates a registry from explicit declarations
func NewRegistry(tables map[models.Category]Table, fields map[models.Category][]Field) *Registry {
	r := &Registry{
		tables: make(map[models.Category]Table, len(tables)),
		fields: make(map[models.Category]map[string]Field, len(fields)),
	}
	for category, table := range tables {
		r.tables[category] = table
	}
	for category, list := range fields {
		byName := make(map[string]Field, len(list))
		for _, f := range list {
			byName[f.Name] = f
		}
		r.fields[category] = byName
	}
	return r
}

// Lookup returns the field declared under category
func (r *Registry) Lookup(category models.Category, name string) (Field, bool) {
	f, ok := r.fields[category][name]
	return f, ok
}

// Resolve returns the first category in Precedence that declares name
func (r *Registry) Resolve(name string) (models.Category, Field, bool) {
	for _, category := range Precedence {
		if f, ok := r.Lookup(category, name); ok {
			return category, f, true
		}
	}
	return "", Field{}, false
}

// Table returns the storage table of category
func (r *Registry) Table(category models.Category) (Table, bool) {
	t, ok := r.tables[category]
	return t, ok
}

// FieldNames returns the declared field names of category
func (r *Registry) FieldNames(category models.Category) []string {
	names := make([]string, 0, len(r.fields[category]))
	for name := range r.fields[category] {
		names = append(names, name)
	}
	return names
}

var defaultRegistry = NewRegistry(
	map[models.Category]Table{
		models.CategoryCoreRecord:         {Name: "patient", LinkColumn: "patient_id"},
		models.CategoryDemographicProfile: {Name: "person", LinkColumn: "person_id"},
		models.CategoryName:               {Name: "person_name", LinkColumn: "person_id"},
		models.CategoryIdentifier:         {Name: "patient_identifier", LinkColumn: "patient_id"},
		models.CategoryAttribute:          {Name: "person_attribute", LinkColumn: "person_id"},
	},
	map[models.Category][]Field{
		models.CategoryCoreRecord: {
			{Name: "patientId", Column: "patient_id"},
			{Name: "allergyStatus", Column: "allergy_status"},
			{Name: "voided", Column: "voided"},
			{Name: "dateCreated", Column: "date_created"},
		},
		models.CategoryDemographicProfile: {
			{Name: "personId", Column: "person_id"},
			{Name: "gender", Column: "gender"},
			{Name: "birthdate", Column: "birthdate"},
			{Name: "birthdateEstimated", Column: "birthdate_estimated"},
			{Name: "dead", Column: "dead"},
			{Name: "deathDate", Column: "death_date"},
			{Name: "causeOfDeath", Column: "cause_of_death"},
			{Name: "voided", Column: "voided"},
			{Name: "dateCreated", Column: "date_created"},
		},
		models.CategoryName: {
			{Name: "prefix", Column: "prefix"},
			{Name: "givenName", Column: "given_name"},
			{Name: "middleName", Column: "middle_name"},
			{Name: "familyNamePrefix", Column: "family_name_prefix"},
			{Name: "familyName", Column: "family_name"},
			{Name: "familyName2", Column: "family_name2"},
			{Name: "familyNameSuffix", Column: "family_name_suffix"},
			{Name: "degree", Column: "degree"},
			{Name: "preferred", Column: "preferred"},
			{Name: "voided", Column: "voided"},
		},
		models.CategoryIdentifier: {
			{Name: "identifier", Column: "identifier"},
			{Name: "identifierType", Column: "identifier_type"},
			{Name: "location", Column: "location_id"},
			{Name: "preferred", Column: "preferred"},
			{Name: "voided", Column: "voided"},
		},
	},
)

// Default returns the registry of the patient record store
func Default() *Registry {
	return defaultRegistry
}
