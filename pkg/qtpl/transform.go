package qtpl

import "strings"

// Transform rewrites a substitution value before it is emitted. All
// built-in transforms are pure string functions; custom transforms must
// be too, because build results are cached.
type Transform func(string) string

// DefaultNamespace is the namespace unqualified transform names resolve
// against, so "table" means "sql/table".
const DefaultNamespace = "sql"

const (
	transformTable     = "sql/table"
	transformColumn    = "sql/column"
	transformQualified = "sql/qualified"
	transformSnake     = "sql/snake"
)

// builtinTransforms is the base transform set every Builder starts with.
var builtinTransforms = map[string]Transform{
	transformTable:     TableName,
	transformColumn:    ColumnName,
	transformQualified: QualifiedName,
	transformSnake:     Snake,
}

// Snake lower-cases an identifier and folds hyphens to underscores.
func Snake(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// TableName extracts the table part of a "table/column" spec. A spec
// without a slash is treated as a bare table name.
func TableName(s string) string {
	if t, _, ok := strings.Cut(s, "/"); ok {
		return Snake(t)
	}
	return Snake(s)
}

// ColumnName extracts the column part of a "table/column" spec. A spec
// without a slash is treated as a bare column name.
func ColumnName(s string) string {
	if _, c, ok := strings.Cut(s, "/"); ok {
		return Snake(c)
	}
	return Snake(s)
}

// QualifiedName renders a "table/column" spec as a dotted identifier
// pair ("table.column"), snake-cased. Quoting is applied separately by
// the tag's quote flag.
func QualifiedName(s string) string {
	if t, c, ok := strings.Cut(s, "/"); ok {
		return Snake(t) + "." + Snake(c)
	}
	return Snake(s)
}

// resolveName expands an unqualified transform name against the default
// namespace.
func resolveName(name string) string {
	if strings.Contains(name, "/") {
		return name
	}
	return DefaultNamespace + "/" + name
}

// quoteIdent back-tick quotes an identifier, quoting each dotted part
// separately so "users.id" renders as `users`.`id`. Embedded back-ticks
// are doubled.
func quoteIdent(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, ".")
	for i, p := range parts {
		parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
	}
	return strings.Join(parts, ".")
}

// quoteLiteral renders text as a SQL string literal with single quotes
// doubled.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
