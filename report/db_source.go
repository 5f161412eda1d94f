package report

import (
	"errors"
	"fmt"

	"strokeserve/db"
	"strokeserve/ml"
)

// DBSource reads the latest recorded accuracy of each model from the training
// log.
type DBSource struct {
	store *db.Store
}

func NewDBSource(store *db.Store) *DBSource {
	return &DBSource{store: store}
}

func (s *DBSource) Accuracy(modelKey string) (float64, error) {
	entry, err := s.store.LatestTrainingLog(modelKey)
	if errors.Is(err, db.ErrNoRecord) {
		return 0, fmt.Errorf("%w: %s", ml.ErrUnknownModel, modelKey)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ml.ErrAccuracyUnavailable, modelKey, err)
	}
	if entry.Accuracy == nil {
		return 0, fmt.Errorf("%w: %s: no accuracy recorded", ml.ErrAccuracyUnavailable, modelKey)
	}
	return *entry.Accuracy, nil
}
