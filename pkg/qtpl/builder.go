package qtpl

import (
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Default cache bounds. The static cache serves templates with a small
// enumerable set of substitution variants; the dynamic cache serves
// generated queries whose key cardinality is driven by user data.
const (
	DefaultStaticCacheSize  = 1024
	DefaultDynamicCacheSize = 4096
)

// Builder interpolates query templates, serving repeated builds from a
// bounded cache. Safe for concurrent use.
type Builder struct {
	static     *lru
	dynamic    *lru
	sf         singleflight.Group
	mu         sync.RWMutex
	transforms map[string]Transform
}

// Option configures a Builder.
type Option func(*builderOptions)

type builderOptions struct {
	staticSize  int
	dynamicSize int
}

// WithStaticCacheSize bounds the cache behind Build.
// Default: 1024 entries.
func WithStaticCacheSize(n int) Option {
	return func(o *builderOptions) {
		if n > 0 {
			o.staticSize = n
		}
	}
}

// WithDynamicCacheSize bounds the cache behind BuildDynamic.
// Default: 4096 entries.
func WithDynamicCacheSize(n int) Option {
	return func(o *builderOptions) {
		if n > 0 {
			o.dynamicSize = n
		}
	}
}

// New creates a Builder with the built-in transform set registered.
func New(opts ...Option) *Builder {
	o := &builderOptions{
		staticSize:  DefaultStaticCacheSize,
		dynamicSize: DefaultDynamicCacheSize,
	}
	for _, opt := range opts {
		opt(o)
	}

	transforms := make(map[string]Transform, len(builtinTransforms))
	for name, fn := range builtinTransforms {
		transforms[name] = fn
	}

	return &Builder{
		static:     newLRU(o.staticSize),
		dynamic:    newLRU(o.dynamicSize),
		transforms: transforms,
	}
}

// RegisterTransform adds a named transform. Unqualified names land in
// the default namespace. Registering an existing name overrides it,
// which makes transforms testable with spies.
func (b *Builder) RegisterTransform(name string, fn Transform) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transforms[resolveName(name)] = fn
}

// Build interpolates a template, serving repeats from the static cache.
// Meant for queries with a small fixed number of substitution variants.
func (b *Builder) Build(template string, subs map[string]string) string {
	return b.build(b.static, template, subs)
}

// BuildDynamic interpolates a template, serving repeats from the larger
// dynamic cache. Meant for generated, high-cardinality queries.
func (b *Builder) BuildDynamic(template string, subs map[string]string) string {
	return b.build(b.dynamic, template, subs)
}

func (b *Builder) build(cache *lru, template string, subs map[string]string) string {
	if template == "" {
		return ""
	}
	// No substitutions: the template passes through untouched.
	if subs == nil {
		return template
	}

	key := cacheKey(template, subs)
	if v, ok := cache.get(key); ok {
		return v
	}

	// Concurrent misses on one key interpolate once.
	v, _, _ := b.sf.Do(key, func() (any, error) {
		return b.interpolate(template, subs), nil
	})
	out := v.(string)
	cache.put(key, out)
	return out
}

func (b *Builder) interpolate(template string, subs map[string]string) string {
	var out strings.Builder
	out.Grow(len(template))

	for _, seg := range scan(template) {
		switch seg.kind {
		case segLiteral:
			out.WriteString(seg.text)
		case segQuoted:
			out.WriteString(quoteLiteral(seg.text))
		case segTag:
			val, ok := subs[seg.text]
			if !ok {
				continue // missing substitution renders as empty
			}
			if seg.transform != "" {
				if fn := b.transform(seg.transform); fn != nil {
					val = fn(val)
				}
			}
			if seg.quote {
				val = quoteIdent(val)
			}
			out.WriteString(val)
		}
	}
	return out.String()
}

func (b *Builder) transform(name string) Transform {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.transforms[resolveName(name)]
}

// Close releases both caches. The Builder must not be used afterwards.
func (b *Builder) Close() error {
	b.static.purge()
	b.dynamic.purge()
	return nil
}

// cacheKey canonicalizes (template, substitutions) into a stable string.
// Substitution keys are sorted so map iteration order cannot split one
// logical key across multiple cache entries.
func cacheKey(template string, subs map[string]string) string {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)

	var k strings.Builder
	k.Grow(len(template) + 16*len(names))
	k.WriteString(template)
	for _, name := range names {
		k.WriteByte('\x00')
		k.WriteString(name)
		k.WriteByte('\x01')
		k.WriteString(subs[name])
	}
	return k.String()
}
