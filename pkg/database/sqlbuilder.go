package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Excluded refers to the value proposed for insertion inside an ON CONFLICT clause
func Excluded(column string) any {
	return sqlbuilder.Raw(fmt.Sprintf("EXCLUDED.%s", column))
}

// Struct maps a row type to builders of a fixed flavor
type Struct struct {
	*sqlbuilder.Struct
	flavor sqlbuilder.Flavor
}

func NewStruct(v any, flavor sqlbuilder.Flavor) *Struct {
	return &Struct{Struct: sqlbuilder.NewStruct(v).For(flavor), flavor: flavor}
}

func (s *Struct) Flavor() sqlbuilder.Flavor {
	return s.flavor
}

// Upsert builds an INSERT of rows that updates columns of the conflicting row instead
func (s *Struct) Upsert(table string, conflict []string, columns []string, rows ...any) (string, []any) {
	ib := s.InsertInto(table, rows...)

	ub := s.flavor.NewUpdateBuilder()
	assignments := make([]string, 0, len(columns))
	for _, c := range columns {
		assignments = append(assignments, ub.Assign(c, Excluded(c)))
	}
	ub.Set(assignments...)

	ib.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE %s", strings.Join(conflict, ", "), ib.Var(ub)))
	return ib.Build()
}
