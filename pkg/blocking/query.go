// Package blocking builds the count query that approximates the comparison workload of a
// blocking configuration. Queries are kept as a small AST and rendered to SQL at the boundary.
package blocking

// Op is a comparison operator
type Op string

const (
	OpEqual    Op = "="
	OpNotEqual Op = "<>"
)

// Operand is either a Column or a Literal
type Operand interface {
	isOperand()
}

// Column references alias.name
type Column struct {
	Alias string
	Name  string
}

func (Column) isOperand() {}

func (c Column) String() string {
	return c.Alias + "." + c.Name
}

// Literal is a bound value
type Literal struct {
	Value any
}

func (Literal) isOperand() {}

// Expr is a predicate node
type Expr interface {
	isExpr()
}

// Compare is a binary comparison. Left is always a column.
type Compare struct {
	Left  Column
	Op    Op
	Right Operand
}

// And is a conjunction of its terms
type And struct {
	Terms []Expr
}

// Or is a disjunction of its terms
type Or struct {
	Terms []Expr
}

func (Compare) isExpr() {}
func (And) isExpr()     {}
func (Or) isExpr()      {}

// Eq compares two columns for equality
func Eq(left, right Column) Compare {
	return Compare{Left: left, Op: OpEqual, Right: right}
}

// EqValue compares a column to a bound value
func EqValue(left Column, value any) Compare {
	return Compare{Left: left, Op: OpEqual, Right: Literal{Value: value}}
}

// Source is a table bound to an alias in the FROM list
type Source struct {
	Table string
	Alias string
}

// CountQuery is COUNT([DISTINCT] Count) FROM Sources WHERE Where
type CountQuery struct {
	Count    Column
	Distinct bool
	Sources  []Source
	Where    And
}

// HasSource reports whether alias is already bound
func (q *CountQuery) HasSource(alias string) bool {
	for _, s := range q.Sources {
		if s.Alias == alias {
			return true
		}
	}
	return false
}

func (q *CountQuery) addSource(table, alias string) bool {
	if q.HasSource(alias) {
		return false
	}
	q.Sources = append(q.Sources, Source{Table: table, Alias: alias})
	return true
}

// Walk calls fn for every node of e in depth-first order
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	switch n := e.(type) {
	case And:
		for _, t := range n.Terms {
			Walk(t, fn)
		}
	case Or:
		for _, t := range n.Terms {
			Walk(t, fn)
		}
	}
}
