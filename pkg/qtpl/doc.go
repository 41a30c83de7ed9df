// Package qtpl rewrites SQL query templates containing %-prefixed
// substitution tags into literal query strings.
//
// # Tag syntax
//
//	%{name}      plain substitution
//	%%{name}     substitution, back-tick quoted as an identifier
//	%mod{name}   substitution passed through the named transform
//	%[name]      shorthand: table part of a qualified spec, quoted
//	%(name)      shorthand: column part of a qualified spec, quoted
//	%<name>      shorthand: full qualified spec, quoted (`table`.`column`)
//	%'text'      SQL string literal quoting of the enclosed text
//
// Tag names are looked up in the substitution map; a missing name
// substitutes the empty string. Substitution values are identifier
// specs, optionally qualified as "table/column". Identifiers are
// snake-cased on output, so "user-accounts/created-at" renders as
// `user_accounts`.`created_at`.
//
// Transform names without a namespace resolve against the builder's
// default namespace ("sql"), so %table{u} and %sql/table{u} are the
// same tag.
//
// # Building
//
// A Builder holds two bounded LRU caches keyed by (template,
// substitutions). Build is backed by the small cache and is meant for
// queries with a small fixed set of variants; BuildDynamic is backed by
// the larger cache and is meant for generated, high-cardinality
// queries. Both are pure functions of their inputs; the caches are a
// performance optimization, never a correctness concern.
//
//	b := qtpl.New()
//	defer b.Close()
//
//	q := b.Build("select %(id) from %[u]", map[string]string{
//	    "id": "users/id",
//	    "u":  "users/id",
//	})
//	// q == "select `id` from `users`"
//
// Template pre-scans are cached per template, so repeated builds of the
// same template with different substitutions only pay the substitution
// pass.
package qtpl
