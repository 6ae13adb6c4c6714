package blocking

import (
	"strings"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/schema"
)

const (
	patientTable        = "patient"
	patientKey          = "patient_id"
	identifierTypeTable = "patient_identifier_type"
	identifierTypeKey   = "patient_identifier_type_id"
	attributeTypeTable  = "person_attribute_type"
	attributeTypeKey    = "person_attribute_type_id"
)

// side aliases per category, first and second record of the pair
var aliases = map[models.Category][2]string{
	models.CategoryCoreRecord:         {"p1", "p2"},
	models.CategoryDemographicProfile: {"person1", "person2"},
	models.CategoryName:               {"pn1", "pn2"},
	models.CategoryIdentifier:         {"pi1", "pi2"},
	models.CategoryAttribute:          {"pa1", "pa2"},
}

// Builder turns blocking entries into a CountQuery
type Builder struct {
	registry *schema.Registry
}

// NewBuilder creates a builder that classifies entries against registry
func NewBuilder(registry *schema.Registry) *Builder {
	return &Builder{registry: registry}
}

// TotalRecords returns the unconditional patient count
func TotalRecords() *CountQuery {
	return &CountQuery{
		Count:   Column{Alias: "p1", Name: patientKey},
		Sources: []Source{{Table: patientTable, Alias: "p1"}},
	}
}

// BuildFromDescriptors parses flat descriptors and builds the count query
func (b *Builder) BuildFromDescriptors(descriptors []string) (*CountQuery, error) {
	entries, err := b.registry.ParseEntries(descriptors)
	if err != nil {
		return nil, err
	}
	return b.Build(entries)
}

// Build creates the count query for entries. Entries are (re)classified so that a stale
// category on an entry can never place a field in the wrong table.
//
// The query counts distinct first-side patients that have at least one blocking partner.
// This is a proxy for the number of candidate pairs, not the pair count itself.
func (b *Builder) Build(entries []models.ConfigurationEntry) (*CountQuery, error) {
	p1 := Column{Alias: "p1", Name: patientKey}
	p2 := Column{Alias: "p2", Name: patientKey}

	q := &CountQuery{
		Count:    p1,
		Distinct: true,
		Sources: []Source{
			{Table: patientTable, Alias: "p1"},
			{Table: patientTable, Alias: "p2"},
		},
		Where: And{Terms: []Expr{Compare{Left: p1, Op: OpNotEqual, Right: p2}}},
	}

	var identifierTypes, attributeTypes []string
	seen := make(map[string]struct{})

	for _, entry := range entries {
		classified, err := b.registry.Classify(entry)
		if err != nil {
			return nil, err
		}

		switch {
		case strings.HasPrefix(classified.FieldName, schema.IdentifierPrefix):
			identifierTypes = appendUnique(identifierTypes, classified.Field)
			continue
		case classified.Category == models.CategoryAttribute:
			attributeTypes = appendUnique(attributeTypes, classified.Field)
			continue
		}

		field, ok := b.registry.Lookup(classified.Category, classified.Field)
		if !ok {
			return nil, clerrors.InvalidEntryf("%q names unknown field %q", classified.FieldName, classified.Field)
		}
		key := string(classified.Category) + "." + field.Column
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if err := b.join(q, classified.Category); err != nil {
			return nil, err
		}
		side := aliases[classified.Category]
		q.Where.Terms = append(q.Where.Terms, Eq(
			Column{Alias: side[0], Name: field.Column},
			Column{Alias: side[1], Name: field.Column},
		))
	}

	if len(identifierTypes) > 0 {
		if err := b.identifierRule(q, identifierTypes); err != nil {
			return nil, err
		}
	}
	if len(attributeTypes) > 0 {
		if err := b.attributeRule(q, attributeTypes); err != nil {
			return nil, err
		}
	}

	return q, nil
}

// join binds category's table pair once and links both sides back to the patients
func (b *Builder) join(q *CountQuery, category models.Category) error {
	if category == models.CategoryCoreRecord {
		return nil
	}
	table, ok := b.registry.Table(category)
	if !ok {
		return clerrors.InvalidConfigurationf("no table declared for category %s", category)
	}
	side := aliases[category]
	if !q.addSource(table.Name, side[0]) {
		return nil
	}
	q.addSource(table.Name, side[1])
	q.Where.Terms = append(q.Where.Terms,
		Eq(Column{Alias: side[0], Name: table.LinkColumn}, Column{Alias: "p1", Name: patientKey}),
		Eq(Column{Alias: side[1], Name: table.LinkColumn}, Column{Alias: "p2", Name: patientKey}),
	)
	return nil
}

// identifierRule restricts pairs to identifiers of the same format and value, limited to
// the requested formats
func (b *Builder) identifierRule(q *CountQuery, formats []string) error {
	if err := b.join(q, models.CategoryIdentifier); err != nil {
		return err
	}
	q.addSource(identifierTypeTable, "pit1")
	q.addSource(identifierTypeTable, "pit2")

	pit1Format := Column{Alias: "pit1", Name: "format"}
	anyFormat := Or{}
	for _, f := range formats {
		anyFormat.Terms = append(anyFormat.Terms, EqValue(pit1Format, f))
	}

	q.Where.Terms = append(q.Where.Terms, And{Terms: []Expr{
		Eq(Column{Alias: "pit1", Name: identifierTypeKey}, Column{Alias: "pi1", Name: "identifier_type"}),
		Eq(Column{Alias: "pit2", Name: identifierTypeKey}, Column{Alias: "pi2", Name: "identifier_type"}),
		Eq(Column{Alias: "pi1", Name: "identifier"}, Column{Alias: "pi2", Name: "identifier"}),
		Eq(pit1Format, Column{Alias: "pit2", Name: "format"}),
		anyFormat,
	}})
	return nil
}

// attributeRule restricts pairs to equal values of the same person attribute type,
// limited to the requested type names
func (b *Builder) attributeRule(q *CountQuery, names []string) error {
	if err := b.join(q, models.CategoryAttribute); err != nil {
		return err
	}
	q.addSource(attributeTypeTable, "pat1")

	pat1Name := Column{Alias: "pat1", Name: "name"}
	anyName := Or{}
	for _, n := range names {
		anyName.Terms = append(anyName.Terms, EqValue(pat1Name, n))
	}

	q.Where.Terms = append(q.Where.Terms, And{Terms: []Expr{
		Eq(Column{Alias: "pat1", Name: attributeTypeKey}, Column{Alias: "pa1", Name: attributeTypeKey}),
		Eq(Column{Alias: "pa1", Name: attributeTypeKey}, Column{Alias: "pa2", Name: attributeTypeKey}),
		Eq(Column{Alias: "pa1", Name: "value"}, Column{Alias: "pa2", Name: "value"}),
		anyName,
	}})
	return nil
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
