package triage

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases text and drops every rune that is not a letter,
// digit, underscore or whitespace.
func Normalize(text string) string {
	// cases.Caser is stateful, so one per call.
	lower := cases.Lower(language.Und).String(norm.NFC.String(text))
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

type synonym struct {
	phrase    string
	canonical string
}

// Expander rewrites colloquial phrases into canonical symptom terms. It is
// immutable and safe for concurrent use.
type Expander struct {
	synonyms []synonym
}

// NewExpander builds an expander from phrase -> canonical pairs. Phrases are
// normalised the same way as input text and visited in sorted order.
func NewExpander(synonyms map[string]string) *Expander {
	e := &Expander{synonyms: make([]synonym, 0, len(synonyms))}
	for phrase, canonical := range synonyms {
		p := Normalize(phrase)
		if strings.TrimSpace(p) == "" {
			continue
		}
		e.synonyms = append(e.synonyms, synonym{phrase: p, canonical: Normalize(canonical)})
	}
	sort.Slice(e.synonyms, func(i, j int) bool {
		return e.synonyms[i].phrase < e.synonyms[j].phrase
	})
	return e
}

// Expand normalises text and appends the canonical form of every synonym
// phrase found in it. The original text is kept intact so either form can
// match later.
func (e *Expander) Expand(text string) string {
	normalized := Normalize(text)
	var b strings.Builder
	b.WriteString(normalized)
	for _, s := range e.synonyms {
		if strings.Contains(normalized, s.phrase) {
			b.WriteByte(' ')
			b.WriteString(s.canonical)
		}
	}
	return b.String()
}

// Len reports how many synonym phrases are loaded.
func (e *Expander) Len() int { return len(e.synonyms) }
