package ml

import "fmt"

// FeatureVector is the ordered numeric input of a model.
type FeatureVector []float64

// Input is a raw record: named fields, or positional values in schema order.
// Positional input is kept for older clients that post {"fitur": [...]}.
type Input struct {
	Fields map[string]interface{}
	Values []interface{}
}

func NamedInput(fields map[string]interface{}) Input {
	return Input{Fields: fields}
}

func PositionalInput(values []interface{}) Input {
	return Input{Values: values}
}

func (in Input) Positional() bool {
	return in.Fields == nil && in.Values != nil
}

// Encode turns in into a vector ordered like the schema. It has no side
// effects.
func (s *FeatureSchema) Encode(in Input) (FeatureVector, error) {
	if in.Positional() {
		return s.EncodePositional(in.Values)
	}
	if in.Fields == nil {
		return nil, fmt.Errorf("%w: empty record", ErrMalformedRecord)
	}
	return s.EncodeNamed(in.Fields)
}

func (s *FeatureSchema) EncodeNamed(fields map[string]interface{}) (FeatureVector, error) {
	vector := make(FeatureVector, 0, len(s.specs))
	for _, spec := range s.specs {
		raw, ok := fields[spec.Name]
		if !ok {
			return nil, &FeatureError{Feature: spec.Name, Err: ErrMissingFeature}
		}
		value, err := spec.Resolve(raw)
		if err != nil {
			return nil, err
		}
		vector = append(vector, value)
	}
	return vector, nil
}

func (s *FeatureSchema) EncodePositional(values []interface{}) (FeatureVector, error) {
	if len(values) > len(s.specs) {
		return nil, fmt.Errorf("%w: got %d values, schema has %d features", ErrMalformedRecord, len(values), len(s.specs))
	}
	vector := make(FeatureVector, 0, len(s.specs))
	for i, spec := range s.specs {
		if i >= len(values) {
			return nil, &FeatureError{Feature: spec.Name, Err: ErrMissingFeature}
		}
		value, err := spec.Resolve(values[i])
		if err != nil {
			return nil, err
		}
		vector = append(vector, value)
	}
	return vector, nil
}
