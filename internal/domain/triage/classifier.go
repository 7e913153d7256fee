package triage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Classifier maps a feature vector to a condition label. Implementations
// must be pure, deterministic and total.
type Classifier interface {
	Predict(vec FeatureVector) string
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(FeatureVector) string

func (f ClassifierFunc) Predict(vec FeatureVector) string { return f(vec) }

var ErrEmptyModel = errors.New("classifier model has no conditions")

// ModelDef is the on-disk form of a LinearModel: one weight per symptom
// name for every condition. Symptoms absent from a condition weigh zero.
type ModelDef struct {
	Conditions []ConditionWeights `yaml:"conditions" json:"conditions"`
}

type ConditionWeights struct {
	Label    string             `yaml:"label" json:"label"`
	Bias     float64            `yaml:"bias" json:"bias"`
	Symptoms map[string]float64 `yaml:"symptoms" json:"symptoms"`
}

type linearClass struct {
	label   string
	bias    float64
	weights []float64
}

// LinearModel scores each condition as bias + sum(weight[i] * vec[i]) and
// predicts the highest scoring one. Ties go to the condition declared first.
type LinearModel struct {
	dim     int
	classes []linearClass
}

// NewLinearModel aligns the weights to vocab. Unknown symptom names are an
// error so a model trained on another vocabulary cannot load silently.
func NewLinearModel(def ModelDef, vocab *Vocabulary) (*LinearModel, error) {
	if len(def.Conditions) == 0 {
		return nil, ErrEmptyModel
	}
	m := &LinearModel{dim: vocab.Len(), classes: make([]linearClass, 0, len(def.Conditions))}
	for _, c := range def.Conditions {
		if c.Label == "" {
			return nil, fmt.Errorf("model condition without label")
		}
		w := make([]float64, vocab.Len())
		for name, weight := range c.Symptoms {
			i := vocab.Index(name)
			if i < 0 {
				return nil, fmt.Errorf("condition %q references unknown symptom %q", c.Label, name)
			}
			w[i] = weight
		}
		m.classes = append(m.classes, linearClass{label: c.Label, bias: c.Bias, weights: w})
	}
	return m, nil
}

// LoadModelFile reads a YAML ModelDef from path.
func LoadModelFile(path string, vocab *Vocabulary) (*LinearModel, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var def ModelDef
	if err := yaml.Unmarshal(content, &def); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	return NewLinearModel(def, vocab)
}

func (m *LinearModel) Predict(vec FeatureVector) string {
	best, bestScore := 0, 0.0
	for ci, c := range m.classes {
		score := c.bias
		for i := 0; i < m.dim && i < len(vec); i++ {
			if vec[i] != 0 {
				score += c.weights[i]
			}
		}
		if ci == 0 || score > bestScore {
			best, bestScore = ci, score
		}
	}
	return m.classes[best].label
}

// Labels returns the condition labels in declaration order.
func (m *LinearModel) Labels() []string {
	out := make([]string, len(m.classes))
	for i, c := range m.classes {
		out[i] = c.label
	}
	return out
}
