// Package params converts a mixed sequence of literal values and
// table/column-scoped symbolic values into coerced, ready-to-bind query
// parameters.
//
// The input is a flat or nested stream of items. Plain values appear as
// themselves; scope markers change how the values after them resolve a
// coercer:
//
//	params.Table("users")    sets the current table for following values
//	params.Col("email")      sets the column for the next value only
//	params.Key("users/email") sets table and column at once
//	params.Sym("status")     a symbolic value; its own name is the column
//	params.Group(...)        a nested sequence, flattened in place
//
// Example:
//
//	args, err := params.Marshal(reg,
//	    params.Table("users"),
//	    params.Col("email"), "ada@example.com",
//	    params.Col("age"), 36,
//	    "plain", // no column pending: passes through unconverted
//	)
//
// The output is positionally aligned with the input values, so it can be
// bound directly against the query's placeholders. Within one Marshal
// call, each distinct (table, column, value) triple is coerced at most
// once; repeated occurrences reuse the first result. This relies on
// coercion functions being referentially transparent, which the coerce
// package requires of them.
package params
