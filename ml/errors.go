package ml

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFeature       = errors.New("missing feature")
	ErrUnknownCategoryValue = errors.New("unknown category value")
	ErrInvalidFeatureType   = errors.New("invalid feature type")
	ErrMalformedRecord      = errors.New("malformed record")
	ErrUnknownModel         = errors.New("unknown model")
	ErrAccuracyUnavailable  = errors.New("accuracy unavailable")
	ErrModelLoadFailure     = errors.New("model load failure")
	ErrPredictionFailed     = errors.New("prediction failed")
)

// FeatureError reports a failure tied to a single named feature.
type FeatureError struct {
	Feature string
	Value   interface{}
	Err     error
}

func (e *FeatureError) Error() string {
	switch e.Err {
	case ErrMissingFeature:
		return fmt.Sprintf("%v: %s", e.Err, e.Feature)
	case ErrUnknownCategoryValue:
		return fmt.Sprintf("%v for %s: %q", e.Err, e.Feature, fmt.Sprint(e.Value))
	default:
		return fmt.Sprintf("%v for %s: %v (%T)", e.Err, e.Feature, e.Value, e.Value)
	}
}

func (e *FeatureError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err was caused by the caller's record rather
// than by the service or a backend.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingFeature) ||
		errors.Is(err, ErrUnknownCategoryValue) ||
		errors.Is(err, ErrInvalidFeatureType) ||
		errors.Is(err, ErrMalformedRecord)
}

// ErrorKind maps err onto the stable identifier reported to API clients.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrMissingFeature):
		return "missing_feature"
	case errors.Is(err, ErrUnknownCategoryValue):
		return "unknown_category_value"
	case errors.Is(err, ErrInvalidFeatureType):
		return "invalid_feature_type"
	case errors.Is(err, ErrMalformedRecord):
		return "malformed_record"
	case errors.Is(err, ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, ErrAccuracyUnavailable):
		return "accuracy_unavailable"
	case errors.Is(err, ErrModelLoadFailure):
		return "model_load_failure"
	case errors.Is(err, ErrPredictionFailed):
		return "prediction_failed"
	default:
		return "internal"
	}
}
