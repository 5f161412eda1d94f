// Package report serves precomputed model accuracy figures.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"strokeserve/ml"
)

// Source returns the offline accuracy score of a model. Scores are never
// derived from live predictions.
type Source interface {
	Accuracy(modelKey string) (float64, error)
}

type Record struct {
	Model    string  `json:"model"`
	Accuracy float64 `json:"accuracy"`
}

// FileSource reads one JSON evaluation file per model, e.g. {"accuracy": 0.95}.
// Parsed records are cached until Invalidate is called for their file.
type FileSource struct {
	files map[string]string
	cache *lru.Cache[string, Record]

	// generations counts invalidations per path. A read only fills the
	// cache if no invalidation happened while it was in flight.
	mu          sync.Mutex
	generations map[string]uint64
}

// readRecordFn is swapped in tests.
var readRecordFn = readRecord

func NewFileSource(files map[string]string, cacheSize int) (*FileSource, error) {
	if cacheSize <= 0 {
		cacheSize = len(files) + 1
	}
	cache, err := lru.New[string, Record](cacheSize)
	if err != nil {
		return nil, err
	}
	paths := make(map[string]string, len(files))
	for model, path := range files {
		paths[model] = filepath.Clean(path)
	}
	return &FileSource{files: paths, cache: cache, generations: make(map[string]uint64)}, nil
}

func (s *FileSource) Accuracy(modelKey string) (float64, error) {
	record, err := s.Record(modelKey)
	if err != nil {
		return 0, err
	}
	return record.Accuracy, nil
}

func (s *FileSource) Record(modelKey string) (Record, error) {
	path, ok := s.files[modelKey]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ml.ErrUnknownModel, modelKey)
	}
	if record, ok := s.cache.Get(modelKey); ok {
		return record, nil
	}

	s.mu.Lock()
	generation := s.generations[path]
	s.mu.Unlock()

	record, err := readRecordFn(modelKey, path)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	if s.generations[path] == generation {
		s.cache.Add(modelKey, record)
	}
	s.mu.Unlock()
	return record, nil
}

// Invalidate drops cached records read from path.
func (s *FileSource) Invalidate(path string) {
	path = filepath.Clean(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	for model, file := range s.files {
		if file == path {
			s.generations[path]++
			s.cache.Remove(model)
		}
	}
}

// Paths returns the tracked evaluation files, sorted.
func (s *FileSource) Paths() []string {
	paths := make([]string, 0, len(s.files))
	for _, path := range s.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func readRecord(modelKey, path string) (Record, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ml.ErrAccuracyUnavailable, modelKey, err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Record{}, fmt.Errorf("%w: %s: %v", ml.ErrAccuracyUnavailable, modelKey, err)
	}
	accuracy, ok := fields["accuracy"].(float64)
	if !ok {
		return Record{}, fmt.Errorf("%w: %s: no numeric accuracy field in %s", ml.ErrAccuracyUnavailable, modelKey, path)
	}
	return Record{Model: modelKey, Accuracy: accuracy}, nil
}
