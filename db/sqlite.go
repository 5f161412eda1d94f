package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNoRecord is returned when a model has no training log entry.
var ErrNoRecord = errors.New("no training record")

// Store keeps the offline evaluation history of the served models.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50) NOT NULL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        trained_at DATETIME,
        data_points INTEGER
    );
    CREATE INDEX IF NOT EXISTS idx_training_log_model ON training_log(model_name, trained_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, fmt.Errorf("create tables failed: %w", err)
	}
	return &Store{db: database}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type TrainingLog struct {
	ModelName  string    `json:"model_name"`
	Accuracy   *float64  `json:"accuracy"`
	Precision  float64   `json:"precision"`
	Recall     float64   `json:"recall"`
	TrainedAt  time.Time `json:"trained_at"`
	DataPoints int       `json:"data_points"`
}

func (s *Store) SaveTrainingLog(entry TrainingLog) error {
	if entry.ModelName == "" {
		return errors.New("model name required")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	var accuracy sql.NullFloat64
	if entry.Accuracy != nil {
		accuracy = sql.NullFloat64{Float64: *entry.Accuracy, Valid: true}
	}
	_, err := s.db.Exec(`
        INSERT INTO training_log (model_name, accuracy, precision, recall, trained_at, data_points)
        VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ModelName, accuracy, entry.Precision, entry.Recall, entry.TrainedAt, entry.DataPoints)
	return err
}

// LatestTrainingLog returns the most recent entry for model, or ErrNoRecord.
func (s *Store) LatestTrainingLog(model string) (TrainingLog, error) {
	row := s.db.QueryRow(`
        SELECT model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        WHERE model_name = ?
        ORDER BY trained_at DESC, id DESC
        LIMIT 1`, model)
	entry, err := scanTrainingLog(row)
	if errors.Is(err, sql.ErrNoRows) {
		return TrainingLog{}, ErrNoRecord
	}
	return entry, err
}

func (s *Store) LoadTrainingLog() ([]TrainingLog, error) {
	rows, err := s.db.Query(`
        SELECT model_name, accuracy, precision, recall, trained_at, data_points
        FROM training_log
        ORDER BY trained_at DESC, id DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		entry, err := scanTrainingLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrainingLog(row scanner) (TrainingLog, error) {
	var (
		entry     TrainingLog
		accuracy  sql.NullFloat64
		precision sql.NullFloat64
		recall    sql.NullFloat64
		points    sql.NullInt64
	)
	if err := row.Scan(&entry.ModelName, &accuracy, &precision, &recall, &entry.TrainedAt, &points); err != nil {
		return TrainingLog{}, err
	}
	if accuracy.Valid {
		value := accuracy.Float64
		entry.Accuracy = &value
	}
	entry.Precision = precision.Float64
	entry.Recall = recall.Float64
	entry.DataPoints = int(points.Int64)
	return entry, nil
}
