package triage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmptyVocabulary  = errors.New("vocabulary is empty")
	ErrDuplicateSymptom = errors.New("duplicate symptom in vocabulary")
)

// Vocabulary is the ordered list of symptom identifiers the classifier was
// trained against. Index order defines feature vector layout and never
// changes after construction.
type Vocabulary struct {
	terms []string
	index map[string]int
}

// NewVocabulary copies terms and rejects empty or duplicate entries.
func NewVocabulary(terms []string) (*Vocabulary, error) {
	if len(terms) == 0 {
		return nil, ErrEmptyVocabulary
	}
	v := &Vocabulary{
		terms: make([]string, len(terms)),
		index: make(map[string]int, len(terms)),
	}
	for i, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("vocabulary entry %d is blank", i)
		}
		if _, dup := v.index[t]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymptom, t)
		}
		v.terms[i] = t
		v.index[t] = i
	}
	return v, nil
}

// LoadVocabularyCSV derives a vocabulary from the header row of a training
// dataset: every column except labelColumn, in file order.
func LoadVocabularyCSV(r io.Reader, labelColumn string) (*Vocabulary, error) {
	header, err := csv.NewReader(r).Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	terms := make([]string, 0, len(header))
	found := false
	for _, col := range header {
		if col == labelColumn {
			found = true
			continue
		}
		terms = append(terms, col)
	}
	if !found {
		return nil, fmt.Errorf("label column %q not in dataset header", labelColumn)
	}
	return NewVocabulary(terms)
}

func (v *Vocabulary) Len() int { return len(v.terms) }

// Terms returns a copy of the vocabulary in index order.
func (v *Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

// Index returns the feature index of term, or -1.
func (v *Vocabulary) Index(term string) int {
	if i, ok := v.index[term]; ok {
		return i
	}
	return -1
}

func (v *Vocabulary) At(i int) string { return v.terms[i] }
