// Package service dispatches raw records to registered model backends.
package service

import (
	"errors"
	"fmt"

	"strokeserve/ml"
)

const (
	RandomForest = "random_forest"
	XGBoost      = "xgboost"
)

// Registration binds a model key to its backend and the schema the backend
// was trained against.
type Registration struct {
	Key     string
	Backend ml.Backend
	Schema  *ml.FeatureSchema
}

type Prediction struct {
	Model string `json:"model"`
	Label int    `json:"hasil_prediksi"`
}

// Service is immutable after New and safe for concurrent use.
type Service struct {
	models map[string]Registration
	order  []string
}

func New(registrations ...Registration) (*Service, error) {
	s := &Service{models: make(map[string]Registration, len(registrations))}
	for _, reg := range registrations {
		if reg.Key == "" {
			return nil, errors.New("model key is required")
		}
		if reg.Backend == nil {
			return nil, fmt.Errorf("model %s has no backend", reg.Key)
		}
		if _, dup := s.models[reg.Key]; dup {
			return nil, fmt.Errorf("model %s registered twice", reg.Key)
		}
		if reg.Schema == nil {
			reg.Schema = ml.StrokeSchema()
		}
		if err := ml.CheckCompatible(reg.Backend, reg.Schema); err != nil {
			return nil, fmt.Errorf("model %s: %w", reg.Key, err)
		}
		s.models[reg.Key] = reg
		s.order = append(s.order, reg.Key)
	}
	return s, nil
}

// Predict encodes in with the schema registered for modelKey and returns the
// backend's label as is.
func (s *Service) Predict(modelKey string, in ml.Input) (Prediction, error) {
	reg, ok := s.models[modelKey]
	if !ok {
		return Prediction{}, fmt.Errorf("%w: %s", ml.ErrUnknownModel, modelKey)
	}
	vector, err := reg.Schema.Encode(in)
	if err != nil {
		return Prediction{}, err
	}
	label, err := reg.Backend.Predict(vector)
	if err != nil {
		if !errors.Is(err, ml.ErrPredictionFailed) {
			err = fmt.Errorf("%w: %s: %v", ml.ErrPredictionFailed, modelKey, err)
		}
		return Prediction{}, err
	}
	return Prediction{Model: modelKey, Label: label}, nil
}

func (s *Service) Models() []string {
	return append([]string(nil), s.order...)
}

func (s *Service) Schema(modelKey string) (*ml.FeatureSchema, error) {
	reg, ok := s.models[modelKey]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ml.ErrUnknownModel, modelKey)
	}
	return reg.Schema, nil
}
