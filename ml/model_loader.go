package ml

import (
	"fmt"
)

// LoadModel reads a persisted model of the given type. Every failure wraps
// ErrModelLoadFailure.
func LoadModel(modelType, path string) (Backend, error) {
	var (
		model Backend
		err   error
	)
	switch modelType {
	case "random_forest":
		model, err = LoadRandomForest(path)
	case "xgboost":
		model, err = LoadXGBoost(path)
	case "decision_tree":
		tree := &DecisionTree{}
		err = tree.Load(path)
		model = tree
	default:
		return nil, fmt.Errorf("%w: unsupported model type %q", ErrModelLoadFailure, modelType)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s model %s: %v", ErrModelLoadFailure, modelType, path, err)
	}
	return model, nil
}

// CheckCompatible verifies that a model fit on a described feature set can be
// fed vectors built from schema.
func CheckCompatible(model Backend, schema *FeatureSchema) error {
	described, ok := model.(FeatureDescriber)
	if !ok {
		return nil
	}
	if n := described.NumFeatures(); n != schema.Len() {
		return fmt.Errorf("%w: model expects %d features, schema has %d", ErrModelLoadFailure, n, schema.Len())
	}
	names := described.FeatureNames()
	if names == nil {
		return nil
	}
	for i, name := range schema.Names() {
		if names[i] != name {
			return fmt.Errorf("%w: feature %d is %q in the model but %q in the schema", ErrModelLoadFailure, i, names[i], name)
		}
	}
	return nil
}
