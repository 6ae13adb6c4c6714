package schema

import (
	"strings"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	IdentifierPrefix = "(Identifier) "
	AttributePrefix  = "(Attribute) "
)

// Classify resolves the category and bare field of an entry from its descriptor.
//
// Tagged descriptors ("(Identifier) X", "(Attribute) X") are taken as given. Anything else
// must be dotted ("Category.field"); the category part is ignored and the field is looked
// up in Precedence order.
func (r *Registry) Classify(entry models.ConfigurationEntry) (models.ConfigurationEntry, error) {
	descriptor := entry.FieldName

	for prefix, category := range map[string]models.Category{
		IdentifierPrefix: models.CategoryIdentifier,
		AttributePrefix:  models.CategoryAttribute,
	} {
		if !strings.HasPrefix(descriptor, prefix) {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(descriptor, prefix))
		if name == "" {
			return entry, clerrors.InvalidEntryf("%q has an empty %s name", descriptor, category)
		}
		entry.Field = name
		entry.Category = category
		return entry, nil
	}

	idx := strings.LastIndex(descriptor, ".")
	if idx < 0 {
		return entry, clerrors.InvalidEntryf("%q is neither tagged nor in Category.field form", descriptor)
	}
	name := descriptor[idx+1:]
	if name == "" {
		return entry, clerrors.InvalidEntryf("%q has an empty field name", descriptor)
	}

	category, _, ok := r.Resolve(name)
	if !ok {
		return entry, clerrors.InvalidEntryf("%q names unknown field %q", descriptor, name)
	}
	entry.Field = name
	entry.Category = category
	return entry, nil
}

// ClassifyAll classifies entries in order, failing on the first invalid one
func (r *Registry) ClassifyAll(entries []models.ConfigurationEntry) ([]models.ConfigurationEntry, error) {
	classified := make([]models.ConfigurationEntry, 0, len(entries))
	for _, entry := range entries {
		c, err := r.Classify(entry)
		if err != nil {
			return nil, err
		}
		classified = append(classified, c)
	}
	return classified, nil
}

// ParseEntries classifies flat descriptors as blocking entries
func (r *Registry) ParseEntries(descriptors []string) ([]models.ConfigurationEntry, error) {
	entries := make([]models.ConfigurationEntry, 0, len(descriptors))
	for _, d := range descriptors {
		entries = append(entries, models.ConfigurationEntry{FieldName: d, IsBlocking: true})
	}
	return r.ClassifyAll(entries)
}

// ValidateConfiguration classifies every row of cfg in place and checks that rows are
// keyed uniquely by field name.
func (r *Registry) ValidateConfiguration(cfg *models.MatchingConfiguration) error {
	seen := make(map[string]struct{}, len(cfg.Rows))
	for i := range cfg.Rows {
		entry, err := r.Classify(cfg.Rows[i].Entry)
		if err != nil {
			return err
		}
		if _, dup := seen[entry.FieldName]; dup {
			return clerrors.InvalidConfigurationf("duplicate row for %q", entry.FieldName)
		}
		seen[entry.FieldName] = struct{}{}
		cfg.Rows[i].Entry = entry
	}
	return nil
}
