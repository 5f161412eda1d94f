package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"strokeserve/config"
	"strokeserve/db"
)

// evaluation is the offline evaluation file written next to each model,
// e.g. forest.json.
type evaluation struct {
	Accuracy   *float64 `json:"accuracy"`
	Precision  float64  `json:"precision"`
	Recall     float64  `json:"recall"`
	DataPoints int      `json:"data_points"`
}

func main() {
	model := flag.String("model", "", "model key, e.g. random_forest")
	evalPath := flag.String("eval", "", "evaluation JSON file")
	configPath := flag.String("config", "config.yaml", "service config; supplies accuracy.database")
	dbPath := flag.String("db", "", "sqlite database path, overrides the config")
	list := flag.Bool("list", false, "print the training log and exit")
	flag.Parse()

	if *dbPath == "" {
		cfg, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		*dbPath = cfg.Accuracy.Database
	}

	store, err := db.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer store.Close()

	if *list {
		if err := printLog(store); err != nil {
			log.Fatalf("failed to read training log: %v", err)
		}
		return
	}

	if *model == "" || *evalPath == "" {
		log.Fatal("model and eval are required")
	}

	eval, err := readEvaluation(*evalPath)
	if err != nil {
		log.Fatalf("failed to read evaluation: %v", err)
	}
	if eval.Accuracy == nil {
		log.Fatalf("%s has no accuracy field", *evalPath)
	}

	entry := db.TrainingLog{
		ModelName:  *model,
		Accuracy:   eval.Accuracy,
		Precision:  eval.Precision,
		Recall:     eval.Recall,
		TrainedAt:  time.Now().UTC(),
		DataPoints: eval.DataPoints,
	}
	if err := store.SaveTrainingLog(entry); err != nil {
		log.Fatalf("failed to save training log: %v", err)
	}
	fmt.Printf("recorded accuracy=%.4f for %s\n", *eval.Accuracy, *model)
}

func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.Load(path)
}

func readEvaluation(path string) (evaluation, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return evaluation{}, err
	}
	var eval evaluation
	if err := json.Unmarshal(payload, &eval); err != nil {
		return evaluation{}, err
	}
	return eval, nil
}

func printLog(store *db.Store) error {
	logs, err := store.LoadTrainingLog()
	if err != nil {
		return err
	}
	for _, entry := range logs {
		accuracy := "-"
		if entry.Accuracy != nil {
			accuracy = fmt.Sprintf("%.4f", *entry.Accuracy)
		}
		fmt.Printf("%s\t%s\taccuracy=%s\tprecision=%.4f\trecall=%.4f\tn=%d\n",
			entry.TrainedAt.Format(time.RFC3339), entry.ModelName, accuracy,
			entry.Precision, entry.Recall, entry.DataPoints)
	}
	return nil
}
