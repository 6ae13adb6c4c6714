package blocking

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Render converts q into SQL for flavor. Literals are always bound as arguments.
func Render(q *CountQuery, flavor sqlbuilder.Flavor) (string, []any) {
	sb := flavor.NewSelectBuilder()

	count := q.Count.String()
	if q.Distinct {
		count = "DISTINCT " + count
	}
	sb.Select(fmt.Sprintf("COUNT(%s)", count))

	from := make([]string, 0, len(q.Sources))
	for _, s := range q.Sources {
		from = append(from, s.Table+" "+s.Alias)
	}
	sb.From(from...)

	if len(q.Where.Terms) > 0 {
		terms := make([]string, 0, len(q.Where.Terms))
		for _, t := range q.Where.Terms {
			terms = append(terms, renderExpr(sb, t))
		}
		sb.Where(terms...)
	}

	return sb.Build()
}

func renderExpr(sb *sqlbuilder.SelectBuilder, e Expr) string {
	switch n := e.(type) {
	case Compare:
		switch right := n.Right.(type) {
		case Column:
			return fmt.Sprintf("%s %s %s", n.Left, n.Op, right)
		case Literal:
			if n.Op == OpNotEqual {
				return sb.NotEqual(n.Left.String(), right.Value)
			}
			return sb.Equal(n.Left.String(), right.Value)
		}
	case And:
		return group(sb, n.Terms, " AND ")
	case Or:
		return group(sb, n.Terms, " OR ")
	}
	panic(fmt.Sprintf("blocking: unsupported expression %T", e))
}

func group(sb *sqlbuilder.SelectBuilder, terms []Expr, sep string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, renderExpr(sb, t))
	}
	return "(" + strings.Join(parts, sep) + ")"
}
