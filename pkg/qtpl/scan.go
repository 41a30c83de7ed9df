package qtpl

import (
	"strings"
	"sync"
)

// segKind discriminates the segment variants produced by the pre-scan.
type segKind int

const (
	segLiteral segKind = iota // verbatim template text
	segTag                    // substitution tag
	segQuoted                 // SQL string literal (%'text')
)

// segment is one parsed piece of a template. A template's segment list
// is immutable once scanned and is shared across builds.
type segment struct {
	text      string // literal text, tag name, or quoted literal
	transform string // transform name, empty for plain tags
	kind      segKind
	quote     bool // back-tick quote the substituted identifier
}

// scanCache memoizes pre-scans per template. Segment lists are small and
// templates are program constants in practice, so this cache is unbounded.
var scanCache sync.Map // template string -> []segment

// scan parses a template into segments, serving repeat templates from
// the pre-scan cache.
func scan(template string) []segment {
	if cached, ok := scanCache.Load(template); ok {
		return cached.([]segment)
	}
	segs := scanTemplate(template)
	scanCache.Store(template, segs)
	return segs
}

func scanTemplate(template string) []segment {
	var segs []segment
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{kind: segLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	i := 0
	for i < len(template) {
		c := template[i]
		if c != '%' || i == len(template)-1 {
			lit.WriteByte(c)
			i++
			continue
		}

		rest := template[i+1:]
		tag, width, ok := scanTag(rest)
		if !ok {
			lit.WriteByte(c)
			i++
			continue
		}
		flush()
		segs = append(segs, tag)
		i += 1 + width
	}
	flush()
	return segs
}

// scanTag parses one tag starting immediately after a '%'. It returns
// the parsed segment and the number of bytes consumed after the '%'.
func scanTag(s string) (segment, int, bool) {
	switch s[0] {
	case '{':
		name, w, ok := delimited(s, '{', '}')
		return segment{kind: segTag, text: name}, w, ok
	case '%':
		if len(s) > 1 && s[1] == '{' {
			name, w, ok := delimited(s[1:], '{', '}')
			return segment{kind: segTag, text: name, quote: true}, w + 1, ok
		}
		return segment{}, 0, false
	case '[':
		name, w, ok := delimited(s, '[', ']')
		return segment{kind: segTag, text: name, transform: transformTable, quote: true}, w, ok
	case '(':
		name, w, ok := delimited(s, '(', ')')
		return segment{kind: segTag, text: name, transform: transformColumn, quote: true}, w, ok
	case '<':
		name, w, ok := delimited(s, '<', '>')
		return segment{kind: segTag, text: name, transform: transformQualified, quote: true}, w, ok
	case '\'':
		text, w, ok := delimited(s, '\'', '\'')
		return segment{kind: segQuoted, text: text}, w, ok
	}

	// %modifier{name}
	brace := strings.IndexByte(s, '{')
	if brace <= 0 || !validTransformName(s[:brace]) {
		return segment{}, 0, false
	}
	name, w, ok := delimited(s[brace:], '{', '}')
	if !ok {
		return segment{}, 0, false
	}
	return segment{kind: segTag, text: name, transform: s[:brace]}, brace + w, true
}

// delimited reads "<open>body<closing>" from the start of s and returns
// the body plus the total bytes consumed.
func delimited(s string, open, closing byte) (string, int, bool) {
	if s[0] != open {
		return "", 0, false
	}
	end := strings.IndexByte(s[1:], closing)
	if end < 0 {
		return "", 0, false
	}
	return s[1 : 1+end], end + 2, true
}

func validTransformName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_' || c == '-' || c == '/' || c == '.':
		default:
			return false
		}
	}
	return len(s) > 0
}
