package service

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"strokeserve/ml"
)

// ModelSpec locates one persisted model. Encoder is optional: without it the
// model is fed vectors built from the built-in stroke schema.
type ModelSpec struct {
	Key     string
	Type    string
	Path    string
	Encoder string
}

// Load reads every model and builds the service. It reports all load failures
// together; any failure means the service cannot start.
func Load(specs []ModelSpec) (*Service, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no models configured", ml.ErrModelLoadFailure)
	}
	var (
		errs          error
		registrations []Registration
	)
	for _, spec := range specs {
		reg, err := loadRegistration(spec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("model %s: %w", spec.Key, err))
			continue
		}
		registrations = append(registrations, reg)
	}
	if errs != nil {
		return nil, errs
	}
	svc, err := New(registrations...)
	if err != nil {
		if !errors.Is(err, ml.ErrModelLoadFailure) {
			err = fmt.Errorf("%w: %v", ml.ErrModelLoadFailure, err)
		}
		return nil, err
	}
	return svc, nil
}

func loadRegistration(spec ModelSpec) (Registration, error) {
	backend, err := ml.LoadModel(spec.Type, spec.Path)
	if err != nil {
		return Registration{}, err
	}
	schema := ml.StrokeSchema()
	if spec.Encoder != "" {
		schema, err = ml.LoadEncoderArtifact(spec.Encoder)
		if err != nil {
			return Registration{}, err
		}
	}
	if err := ml.CheckCompatible(backend, schema); err != nil {
		return Registration{}, err
	}
	return Registration{Key: spec.Key, Backend: backend, Schema: schema}, nil
}
