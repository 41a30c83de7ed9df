package params

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dbkit-go/dbkit/pkg/coerce"
)

// Table sets the current table for all values that follow, until the
// next Table or Key marker.
type Table string

// Col sets the column used to look up the coercer for the single value
// that follows it. It does not change the current table.
type Col string

// Key is a fully qualified "table/column" spec. It sets the current
// table and the column for the next value in one marker.
type Key string

// Sym is a symbolic value: its own name doubles as the column when no
// column is pending, and its snake-cased name is the bound value.
type Sym string

// Group is a nested sequence of items, flattened in place. Scope
// markers inside a group behave exactly as they would at the top level.
type Group []any

// slotKey identifies one logical coercion within a Marshal call: same
// table, same column, same value. Used to batch repeated coercions.
type slotKey struct {
	table  string
	column string
	value  any
}

// marshalState carries the scope through the item stream.
type marshalState struct {
	table     string
	column    string // pending column, consumed by the next value
	pending   bool
	qualified bool // pending column came from a fully qualified Key
}

// Marshal coerces an item stream into a flat, order-preserving slice of
// bind parameters. Values with no resolvable (table, column) scope pass
// through unconverted. Coercion errors propagate with the position and
// scope of the failing value.
func Marshal(reg *coerce.Registry, items ...any) ([]any, error) {
	out := make([]any, 0, len(items))
	slots := make(map[slotKey]any)
	st := &marshalState{}

	var pos int
	var walk func(items []any) error
	walk = func(items []any) error {
		for _, item := range items {
			switch v := item.(type) {
			case Table:
				st.table = string(v)
				st.pending = false
				st.qualified = false
			case Col:
				st.column = string(v)
				st.pending = true
				st.qualified = false
			case Key:
				table, column := splitKey(string(v))
				if table != "" {
					st.table = table
				}
				st.column = column
				st.pending = true
				st.qualified = true
			case Group:
				if err := walk(v); err != nil {
					return err
				}
			case Sym:
				table, column, value, scoped := st.resolveSym(string(v))
				coerced, err := coerceValue(reg, slots, table, column, value, scoped)
				if err != nil {
					return fmt.Errorf("params: value %d: %w", pos, err)
				}
				out = append(out, coerced)
				pos++
			default:
				table, column, value, scoped := st.resolve(item)
				coerced, err := coerceValue(reg, slots, table, column, value, scoped)
				if err != nil {
					return fmt.Errorf("params: value %d: %w", pos, err)
				}
				out = append(out, coerced)
				pos++
			}
		}
		return nil
	}

	if err := walk(items); err != nil {
		return nil, err
	}
	return out, nil
}

// resolve scopes a plain value. A pending column is consumed by exactly
// one value; without one the value has no coercer and passes through.
// A bare column with no table in scope only coerces when it came from a
// fully qualified Key.
func (st *marshalState) resolve(v any) (string, string, any, bool) {
	if st.pending {
		scoped := st.column != "" && (st.table != "" || st.qualified)
		st.pending = false
		return st.table, st.column, v, scoped
	}
	return st.table, "", v, false
}

// resolveSym scopes a symbolic value: a pending column wins, otherwise
// the symbol names its own column when a table is in scope.
func (st *marshalState) resolveSym(name string) (string, string, any, bool) {
	value := snake(name)
	if st.pending {
		scoped := st.column != "" && (st.table != "" || st.qualified)
		st.pending = false
		return st.table, st.column, value, scoped
	}
	if st.table != "" {
		return st.table, snake(name), value, true
	}
	return st.table, "", value, false
}

// coerceValue applies the inbound coercer for a scoped value, batching
// repeated identical (table, column, value) triples through the slot
// map so each is coerced once per Marshal call. Non-comparable values
// cannot be slot keys and are coerced every time.
func coerceValue(reg *coerce.Registry, slots map[slotKey]any, table, column string, v any, scoped bool) (any, error) {
	if !scoped {
		return v, nil
	}

	var key slotKey
	batch := isComparable(v)
	if batch {
		key = slotKey{table: table, column: column, value: v}
		if cached, ok := slots[key]; ok {
			return cached, nil
		}
	}

	coerced, err := reg.In(table, column, v)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", table, column, err)
	}
	if batch {
		slots[key] = coerced
	}
	return coerced, nil
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}

func splitKey(s string) (table, column string) {
	if t, c, ok := strings.Cut(s, "/"); ok {
		return t, c
	}
	return "", s
}

func snake(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}
