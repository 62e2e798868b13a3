package user

import (
	"strconv"
	"strings"
)

// predicate is a single equality test against one searchable column.
type predicate struct {
	column string
	value  string
	field  func(User) string
}

// predicates lists the provided criteria in column order.
func (c SearchCriteria) predicates() []predicate {
	candidates := []struct {
		column string
		value  *string
		field  func(User) string
	}{
		{"first_name", c.FirstName, func(u User) string { return u.FirstName }},
		{"second_name", c.SecondName, func(u User) string { return u.SecondName }},
		{"email_add", c.EmailAdd, func(u User) string { return u.EmailAdd }},
	}

	preds := make([]predicate, 0, len(candidates))
	for _, cand := range candidates {
		if cand.value == nil {
			continue
		}
		preds = append(preds, predicate{column: cand.column, value: *cand.value, field: cand.field})
	}
	return preds
}

// IsEmpty reports whether no criterion was provided.
func (c SearchCriteria) IsEmpty() bool {
	return len(c.predicates()) == 0
}

// matchesAny ORs the predicates over u.
func matchesAny(preds []predicate, u User) bool {
	for _, p := range preds {
		if p.field(u) == p.value {
			return true
		}
	}
	return false
}

// orClause renders preds as `col = $n OR ...` with placeholders starting at
// firstArg, returning the clause and its arguments in order.
func orClause(preds []predicate, firstArg int) (string, []any) {
	parts := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	for i, p := range preds {
		parts = append(parts, p.column+" = $"+strconv.Itoa(firstArg+i))
		args = append(args, p.value)
	}
	return strings.Join(parts, " OR "), args
}
