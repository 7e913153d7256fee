package triage

import "strings"

// FeatureVector is a binary presence vector aligned to a Vocabulary.
type FeatureVector []uint8

// Count returns the number of set features.
func (f FeatureVector) Count() int {
	n := 0
	for _, x := range f {
		if x != 0 {
			n++
		}
	}
	return n
}

type matchTerm struct {
	spaced     string // "chest tightness"
	underscore string // "chest_tightness"
}

// Matcher turns expanded text into a feature vector over a fixed vocabulary.
type Matcher struct {
	vocab     *Vocabulary
	terms     []matchTerm
	threshold float64
}

func NewMatcher(vocab *Vocabulary) *Matcher {
	m := &Matcher{vocab: vocab, terms: make([]matchTerm, vocab.Len()), threshold: FuzzyThreshold}
	for i := 0; i < vocab.Len(); i++ {
		u := Normalize(vocab.At(i))
		m.terms[i] = matchTerm{spaced: strings.ReplaceAll(u, "_", " "), underscore: u}
	}
	return m
}

// Match marks each vocabulary term present in text either as a substring or
// by whole-text fuzzy similarity at or above the threshold. The matched set is
// returned in vocabulary order.
func (m *Matcher) Match(text string) (FeatureVector, []string) {
	vec := make(FeatureVector, len(m.terms))
	var matched []string
	for i, t := range m.terms {
		if m.matches(t, text) {
			vec[i] = 1
			matched = append(matched, m.vocab.At(i))
		}
	}
	return vec, matched
}

func (m *Matcher) matches(t matchTerm, text string) bool {
	if t.spaced == "" {
		return false
	}
	if strings.Contains(text, t.spaced) || strings.Contains(text, t.underscore) {
		return true
	}
	return Similarity(t.spaced, text) >= m.threshold
}

// Vocabulary returns the vocabulary the matcher was built for.
func (m *Matcher) Vocabulary() *Vocabulary { return m.vocab }
