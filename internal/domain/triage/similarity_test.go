package triage

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"fever", "", 0},
		{"", "fever", 0},
		{"fever", "fever", 1},
		{"fever", "fevr", 0.8},
		{"kitten", "sitting", 1 - 3.0/7.0},
		{"headache", "headach", 0.875},
	}
	for _, tt := range tests {
		got := Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"chest tightness", "tight chest"},
		{"dizziness", "i feel dizzy"},
		{"nausea", "n"},
	}
	for _, p := range pairs {
		ab, ba := Similarity(p[0], p[1]), Similarity(p[1], p[0])
		if ab != ba {
			t.Errorf("Similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("Similarity out of range for %q/%q: %v", p[0], p[1], ab)
		}
	}
}
