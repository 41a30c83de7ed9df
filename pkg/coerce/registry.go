package coerce

import (
	"log/slog"
	"strings"
	"sync"
)

// Func converts a value in one direction between its application and
// storage representations. A Func must be referentially transparent:
// callers are free to coerce a given value once and reuse the result.
//
// Errors returned by a Func propagate unchanged to the caller of In/Out.
// A coercion failure indicates malformed application data, not an
// infrastructure problem, so the registry never swallows it.
type Func func(v any) (any, error)

// Direction selects which half of a registered pair a lookup targets.
type Direction int

const (
	// Inbound converts application values to their storage representation.
	Inbound Direction = iota
	// Outbound converts storage values back to application types.
	Outbound
)

// Resolution reports how a lookup resolved.
type Resolution int

const (
	// ResolutionMiss means no entry matched; the value passes through.
	ResolutionMiss Resolution = iota
	// ResolvedQualified means the exact table/column entry matched.
	ResolvedQualified
	// ResolvedColumn means the column-only fallback entry matched.
	ResolvedColumn
	// ResolvedNone means an explicit no-op marker matched. The value
	// passes through like a miss, but the column is known verified
	// rather than an open gap.
	ResolvedNone
)

// String returns a short label for logging.
func (r Resolution) String() string {
	switch r {
	case ResolvedQualified:
		return "qualified"
	case ResolvedColumn:
		return "column"
	case ResolvedNone:
		return "none"
	default:
		return "miss"
	}
}

// entry holds one registered coercion pair. none marks the explicit
// "verified no-op" registration, distinct from an absent entry.
type entry struct {
	in   Func
	out  Func
	none bool
}

// Registry is an append-only dispatch table of coercion pairs keyed by
// table/column, with a column-only fallback level. Safe for concurrent
// registration and lookup.
type Registry struct {
	mu        sync.RWMutex
	qualified map[string]entry // "table/column" -> pair
	columns   map[string]entry // "column" -> pair
	log       *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used to record coercion gaps at debug level.
// Default: slog.Default().
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty coercion registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		qualified: make(map[string]entry),
		columns:   make(map[string]entry),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// normalizeIdent lower-cases an identifier and folds hyphens to
// underscores, so lisp-style and snake-style spellings share one key.
func normalizeIdent(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
}

// Key returns the normalized lookup key for a table and column. An empty
// table yields the bare column key used by the fallback level.
func Key(table, column string) string {
	column = normalizeIdent(column)
	if table == "" {
		return column
	}
	return normalizeIdent(table) + "/" + column
}

// Register adds a coercion pair for table/column. An empty table
// registers the pair at the column-only fallback level. Registering the
// same key twice returns ErrAlreadyRegistered.
func (r *Registry) Register(table, column string, in, out Func) error {
	if in == nil || out == nil {
		return ErrNilCoercer
	}
	return r.put(table, column, entry{in: in, out: out})
}

// RegisterNone marks table/column as verified to need no coercion. The
// marker stops the fallback lookup: a qualified no-op entry wins over a
// column-level coercer.
func (r *Registry) RegisterNone(table, column string) error {
	return r.put(table, column, entry{none: true})
}

func (r *Registry) put(table, column string, e entry) error {
	if strings.TrimSpace(column) == "" {
		return ErrEmptyColumn
	}
	key := Key(table, column)

	r.mu.Lock()
	defer r.mu.Unlock()

	dst := r.qualified
	if table == "" {
		dst = r.columns
	}
	if _, exists := dst[key]; exists {
		return ErrAlreadyRegistered
	}
	dst[key] = e
	return nil
}

// Resolve looks up the coercer for table/column in the given direction.
// Lookup order: exact table/column entry first, then the column-only
// fallback. The returned Func is nil unless the resolution is
// ResolvedQualified or ResolvedColumn.
func (r *Registry) Resolve(dir Direction, table, column string) (Func, Resolution) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.qualified[Key(table, column)]; ok {
		return e.pick(dir), resolutionFor(e, ResolvedQualified)
	}
	if e, ok := r.columns[Key("", column)]; ok {
		return e.pick(dir), resolutionFor(e, ResolvedColumn)
	}
	return nil, ResolutionMiss
}

func (e entry) pick(dir Direction) Func {
	if e.none {
		return nil
	}
	if dir == Inbound {
		return e.in
	}
	return e.out
}

func resolutionFor(e entry, hit Resolution) Resolution {
	if e.none {
		return ResolvedNone
	}
	return hit
}

// In converts an application value to its storage representation. When no
// coercer is registered the value is returned unchanged; the gap is
// recorded at debug level so unverified columns stay discoverable.
func (r *Registry) In(table, column string, v any) (any, error) {
	return r.apply(Inbound, table, column, v)
}

// Out converts a storage value back to its application representation,
// with the same pass-through behavior as In.
func (r *Registry) Out(table, column string, v any) (any, error) {
	return r.apply(Outbound, table, column, v)
}

func (r *Registry) apply(dir Direction, table, column string, v any) (any, error) {
	fn, res := r.Resolve(dir, table, column)
	switch res {
	case ResolutionMiss:
		r.log.Debug("no coercer registered",
			slog.String("table", normalizeIdent(table)),
			slog.String("column", normalizeIdent(column)),
		)
		return v, nil
	case ResolvedNone:
		return v, nil
	default:
		return fn(v)
	}
}

// Len reports the number of registered entries at each level.
func (r *Registry) Len() (qualified, columns int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.qualified), len(r.columns)
}
