package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
)

// CategoricalEncoding resolves a categorical label to the integer a model was
// trained on. Lookups are exact and case-sensitive.
type CategoricalEncoding interface {
	Encode(label string) (int, bool)
	Labels() []string
}

// StaticEncoding is a label table embedded in code.
type StaticEncoding map[string]int

func (e StaticEncoding) Encode(label string) (int, bool) {
	code, ok := e[label]
	return code, ok
}

// Labels returns the known labels ordered by their code.
func (e StaticEncoding) Labels() []string {
	labels := make([]string, 0, len(e))
	for label := range e {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if e[labels[i]] != e[labels[j]] {
			return e[labels[i]] < e[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}

// LabelEncoding is a trained encoder: a label's code is its index in the
// class list persisted next to the model.
type LabelEncoding struct {
	classes []string
	index   map[string]int
}

func NewLabelEncoding(classes []string) (*LabelEncoding, error) {
	if len(classes) == 0 {
		return nil, errors.New("label encoder has no classes")
	}
	index := make(map[string]int, len(classes))
	for i, class := range classes {
		if _, dup := index[class]; dup {
			return nil, fmt.Errorf("label encoder has duplicate class %q", class)
		}
		index[class] = i
	}
	return &LabelEncoding{
		classes: append([]string(nil), classes...),
		index:   index,
	}, nil
}

func (e *LabelEncoding) Encode(label string) (int, bool) {
	code, ok := e.index[label]
	return code, ok
}

func (e *LabelEncoding) Labels() []string {
	return append([]string(nil), e.classes...)
}

// EncoderArtifact is the persisted form of the trained encoders: the feature
// order the model was fit on and the class list of every categorical feature.
type EncoderArtifact struct {
	FeatureOrder []string            `json:"feature_order"`
	Encoders     map[string][]string `json:"encoders"`
}

// LoadEncoderArtifact reads an encoder artifact and builds the schema it
// describes. Features without an encoder entry are numeric.
func LoadEncoderArtifact(path string) (*FeatureSchema, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read encoder %s: %v", ErrModelLoadFailure, path, err)
	}
	var artifact EncoderArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("%w: parse encoder %s: %v", ErrModelLoadFailure, path, err)
	}
	schema, err := artifact.Schema()
	if err != nil {
		return nil, fmt.Errorf("%w: encoder %s: %v", ErrModelLoadFailure, path, err)
	}
	return schema, nil
}

func (a EncoderArtifact) Schema() (*FeatureSchema, error) {
	if len(a.FeatureOrder) == 0 {
		return nil, errors.New("feature_order is empty")
	}
	specs := make([]FeatureSpec, 0, len(a.FeatureOrder))
	used := 0
	for _, name := range a.FeatureOrder {
		classes, ok := a.Encoders[name]
		if !ok {
			specs = append(specs, Numeric(name))
			continue
		}
		encoding, err := NewLabelEncoding(classes)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", name, err)
		}
		specs = append(specs, Categorical(name, encoding))
		used++
	}
	if used != len(a.Encoders) {
		return nil, errors.New("encoders reference features missing from feature_order")
	}
	return NewFeatureSchema(specs...)
}
