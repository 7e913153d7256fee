package triage

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/default.yaml
var defaultCatalogYAML []byte

// Catalog bundles the static triage configuration loaded once at startup.
type Catalog struct {
	Vocabulary       []string          `yaml:"vocabulary"`
	Synonyms         map[string]string `yaml:"synonyms"`
	Directory        Directory         `yaml:"directory"`
	DefaultCondition string            `yaml:"default_condition"`
	Model            ModelDef          `yaml:"model"`
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() (Catalog, error) {
	return parseCatalog(defaultCatalogYAML)
}

// LoadCatalog reads a catalog from path, or the embedded default when path
// is empty.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return parseCatalog(content)
}

func parseCatalog(content []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(content, &cat); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cat.Vocabulary) == 0 {
		return Catalog{}, ErrEmptyVocabulary
	}
	return cat, nil
}

// Options selects optional overrides for the catalog's vocabulary and model.
type Options struct {
	CatalogPath   string
	VocabularyCSV string
	LabelColumn   string
	ModelPath     string
}

// Load assembles a ready Service from the catalog plus overrides.
func Load(opts Options) (*Service, error) {
	cat, err := LoadCatalog(opts.CatalogPath)
	if err != nil {
		return nil, err
	}

	var vocab *Vocabulary
	if opts.VocabularyCSV != "" {
		f, err := os.Open(filepath.Clean(opts.VocabularyCSV))
		if err != nil {
			return nil, fmt.Errorf("open vocabulary dataset: %w", err)
		}
		defer f.Close()
		label := opts.LabelColumn
		if label == "" {
			label = "diseases"
		}
		if vocab, err = LoadVocabularyCSV(f, label); err != nil {
			return nil, err
		}
	} else if vocab, err = NewVocabulary(cat.Vocabulary); err != nil {
		return nil, err
	}

	var model *LinearModel
	if opts.ModelPath != "" {
		model, err = LoadModelFile(opts.ModelPath, vocab)
	} else {
		model, err = NewLinearModel(cat.Model, vocab)
	}
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}

	svc := NewService(NewExpander(cat.Synonyms), NewMatcher(vocab), model, NewRouter(cat.Directory))
	return svc.WithDefaultCondition(cat.DefaultCondition), nil
}
