package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

type FeatureKind string

const (
	KindNumeric     FeatureKind = "numeric"
	KindCategorical FeatureKind = "categorical"
)

type FeatureSpec struct {
	Name     string
	Kind     FeatureKind
	Encoding CategoricalEncoding
}

func Numeric(name string) FeatureSpec {
	return FeatureSpec{Name: name, Kind: KindNumeric}
}

func Categorical(name string, encoding CategoricalEncoding) FeatureSpec {
	return FeatureSpec{Name: name, Kind: KindCategorical, Encoding: encoding}
}

// Resolve converts one raw value to the number the model expects.
func (s FeatureSpec) Resolve(raw interface{}) (float64, error) {
	if s.Kind == KindCategorical {
		label, ok := raw.(string)
		if !ok {
			return 0, &FeatureError{Feature: s.Name, Value: raw, Err: ErrInvalidFeatureType}
		}
		code, ok := s.Encoding.Encode(label)
		if !ok {
			return 0, &FeatureError{Feature: s.Name, Value: raw, Err: ErrUnknownCategoryValue}
		}
		return float64(code), nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return 0, &FeatureError{Feature: s.Name, Value: raw, Err: ErrInvalidFeatureType}
	}
	return value, nil
}

// FeatureSchema is the ordered feature list a model was fit on. It is
// immutable once built and safe for concurrent use.
type FeatureSchema struct {
	specs []FeatureSpec
}

func NewFeatureSchema(specs ...FeatureSpec) (*FeatureSchema, error) {
	if len(specs) == 0 {
		return nil, errors.New("schema has no features")
	}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, errors.New("feature name is required")
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("duplicate feature %s", spec.Name)
		}
		seen[spec.Name] = true
		switch spec.Kind {
		case KindNumeric:
		case KindCategorical:
			if spec.Encoding == nil {
				return nil, fmt.Errorf("categorical feature %s has no encoding", spec.Name)
			}
		default:
			return nil, fmt.Errorf("feature %s has unknown kind %q", spec.Name, spec.Kind)
		}
	}
	return &FeatureSchema{specs: append([]FeatureSpec(nil), specs...)}, nil
}

func (s *FeatureSchema) Len() int {
	return len(s.specs)
}

func (s *FeatureSchema) Spec(i int) FeatureSpec {
	return s.specs[i]
}

func (s *FeatureSchema) Names() []string {
	names := make([]string, len(s.specs))
	for i, spec := range s.specs {
		names[i] = spec.Name
	}
	return names
}

var strokeSchema = mustSchema(
	Categorical("gender", StaticEncoding{"Male": 1, "Female": 0}),
	Numeric("age"),
	Numeric("hypertension"),
	Numeric("heart_disease"),
	Categorical("ever_married", StaticEncoding{"Yes": 1, "No": 0}),
	Categorical("work_type", StaticEncoding{"Private": 0, "Self-employed": 1, "Govt_job": 2}),
	Categorical("Residence_type", StaticEncoding{"Urban": 1, "Rural": 0}),
	Numeric("avg_glucose_level"),
	Numeric("bmi"),
	Categorical("smoking_status", StaticEncoding{"never smoked": 0, "formerly smoked": 1, "smokes": 2}),
)

// StrokeSchema returns the built-in stroke feature schema with its static
// label tables, in the order both models were trained on.
func StrokeSchema() *FeatureSchema {
	return strokeSchema
}

func mustSchema(specs ...FeatureSpec) *FeatureSchema {
	schema, err := NewFeatureSchema(specs...)
	if err != nil {
		panic(err)
	}
	return schema
}

func toFloat(raw interface{}) (float64, bool) {
	var value float64
	switch v := raw.(type) {
	case float64:
		value = v
	case float32:
		value = float64(v)
	case int:
		value = float64(v)
	case int64:
		value = float64(v)
	case int32:
		value = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		value = f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		value = f
	default:
		return 0, false
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
