package recovery

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tdvu/keyhound/internal/core/domain"
)

// GenerateBases expands a word list into the deduplicated set of base
// tokens allowed by the grammar. Tokens outside the grammar's length
// bounds are silently excluded. The returned slice is in first-seen
// order, which is deterministic for a given input order; chunk
// assignment across workers depends on that.
func GenerateBases(words []string, g domain.Grammar) []string {
	seen := make(map[string]struct{})
	var bases []string
	add := func(tok string) {
		// Bounds are in characters, not bytes.
		if n := utf8.RuneCountInString(tok); n < g.BaseMinLen || n > g.BaseMaxLen {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		bases = append(bases, tok)
	}

	// Single-word variants: verbatim, lower, upper, capitalized,
	// title-cased.
	for _, w := range words {
		add(w)
		add(strings.ToLower(w))
		add(strings.ToUpper(w))
		add(capitalize(w))
		add(titleCase(w))
	}

	// Ordered pairs of distinct words joined by each separator:
	// lower, upper, and both-capitalized variants.
	for i, w1 := range words {
		for j, w2 := range words {
			if i == j || w1 == w2 {
				continue
			}
			for _, sep := range g.Separators {
				joined := w1 + sep + w2
				add(strings.ToLower(joined))
				add(strings.ToUpper(joined))
				add(capitalize(w1) + sep + capitalize(w2))
			}
		}
	}

	return bases
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
}

// titleCase capitalizes each whitespace-delimited segment, leaving the
// whitespace itself untouched.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	atStart := true
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			atStart = true
			b.WriteRune(r)
		case atStart:
			b.WriteRune(unicode.ToUpper(r))
			atStart = false
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
