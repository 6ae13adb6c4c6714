package blocking

import (
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
)

// Validate checks that q is well formed: aliases are bound once, every referenced column
// belongs to a bound alias, no group is empty and, for pair queries, the own-pair
// exclusion is present at the top level.
func Validate(q *CountQuery) error {
	bound := make(map[string]struct{}, len(q.Sources))
	for _, s := range q.Sources {
		if _, dup := bound[s.Alias]; dup {
			return clerrors.InvalidConfigurationf("alias %s bound twice", s.Alias)
		}
		bound[s.Alias] = struct{}{}
	}

	if _, ok := bound[q.Count.Alias]; !ok {
		return clerrors.InvalidConfigurationf("count column %s is not bound", q.Count)
	}

	var err error
	check := func(c Column) {
		if _, ok := bound[c.Alias]; !ok && err == nil {
			err = clerrors.InvalidConfigurationf("column %s is not bound", c)
		}
	}

	for _, term := range q.Where.Terms {
		Walk(term, func(e Expr) {
			switch n := e.(type) {
			case Compare:
				check(n.Left)
				if c, ok := n.Right.(Column); ok {
					check(c)
				}
			case And:
				if len(n.Terms) == 0 && err == nil {
					err = clerrors.InvalidConfigurationf("empty conjunction")
				}
			case Or:
				if len(n.Terms) == 0 && err == nil {
					err = clerrors.InvalidConfigurationf("empty disjunction")
				}
			}
		})
	}
	if err != nil {
		return err
	}

	if _, pair := bound["p2"]; pair && !hasOwnPairExclusion(q) {
		return clerrors.InvalidConfigurationf("pair query without p1 <> p2")
	}
	return nil
}

func hasOwnPairExclusion(q *CountQuery) bool {
	p1 := Column{Alias: "p1", Name: patientKey}
	p2 := Column{Alias: "p2", Name: patientKey}
	for _, term := range q.Where.Terms {
		c, ok := term.(Compare)
		if !ok || c.Op != OpNotEqual || c.Left != p1 {
			continue
		}
		if right, ok := c.Right.(Column); ok && right == p2 {
			return true
		}
	}
	return false
}
