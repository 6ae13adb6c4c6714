package analysis

import (
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

// MatchVector holds the per-field agreement outcome of one candidate pair,
// aligned with a configuration's included columns.
type MatchVector struct {
	columns    []string
	agreements []bool
}

// NewMatchVector creates a vector. columns and agreements must have the same length.
func NewMatchVector(columns []string, agreements []bool) (*MatchVector, error) {
	if len(columns) != len(agreements) {
		return nil, clerrors.InvalidConfigurationf("match vector has %d agreements for %d columns", len(agreements), len(columns))
	}

	v := &MatchVector{
		columns:    make([]string, len(columns)),
		agreements: make([]bool, len(agreements)),
	}
	copy(v.columns, columns)
	copy(v.agreements, agreements)
	return v, nil
}

// MatchedOn reports whether the pair agreed on fieldName. Unknown fields never match.
func (v *MatchVector) MatchedOn(fieldName string) bool {
	for i, c := range v.columns {
		if c == fieldName {
			return v.agreements[i]
		}
	}
	return false
}

// Len returns the number of fields in the vector
func (v *MatchVector) Len() int {
	return len(v.agreements)
}

// At returns the agreement of the i-th included column
func (v *MatchVector) At(i int) bool {
	return v.agreements[i]
}

// Column returns the field name of the i-th included column
func (v *MatchVector) Column(i int) string {
	return v.columns[i]
}

// Agreements returns the number of fields the pair agreed on
func (v *MatchVector) Agreements() int {
	n := 0
	for _, a := range v.agreements {
		if a {
			n++
		}
	}
	return n
}
