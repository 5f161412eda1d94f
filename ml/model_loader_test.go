package ml

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadModel(t *testing.T) {
	dir := t.TempDir()
	forestPath := writeArtifact(t, dir, "random_forest.json", randomForestArtifact{
		NFeatures: 10,
		Classes:   []int{0, 1},
		Trees:     [][]TreeNode{strokeTreeNodes()},
	})
	treePath := writeArtifact(t, dir, "tree.json", strokeTreeNodes())

	cases := map[string]string{
		"random_forest": forestPath,
		"decision_tree": treePath,
		"xgboost":       writeBooster(t, "binary:logistic", 0.5),
	}
	for modelType, path := range cases {
		model, err := LoadModel(modelType, path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", modelType, err)
		}
		label, err := model.Predict(exampleVector)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", modelType, err)
		}
		if label != 1 {
			t.Fatalf("%s: expected label 1, got %d", modelType, label)
		}
	}
}

func TestLoadModelFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadModel("svm", filepath.Join(dir, "svm.json")); !errors.Is(err, ErrModelLoadFailure) {
		t.Fatalf("expected ErrModelLoadFailure, got %v", err)
	}
	if _, err := LoadModel("random_forest", filepath.Join(dir, "absent.json")); !errors.Is(err, ErrModelLoadFailure) {
		t.Fatalf("expected ErrModelLoadFailure, got %v", err)
	}
	wrongType := writeArtifact(t, dir, "mislabelled.json", map[string]interface{}{"model_type": "xgboost"})
	if _, err := LoadModel("random_forest", wrongType); !errors.Is(err, ErrModelLoadFailure) {
		t.Fatalf("expected ErrModelLoadFailure, got %v", err)
	}
}

func TestCheckCompatible(t *testing.T) {
	tree := &DecisionTree{}
	if err := CheckCompatible(tree, StrokeSchema()); err != nil {
		t.Fatalf("undescribed models are always compatible: %v", err)
	}

	narrow, err := NewRandomForest([]*DecisionTree{{nodes: []TreeNode{leafNode(0)}}}, []int{0, 1}, 9, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckCompatible(narrow, StrokeSchema()); !errors.Is(err, ErrModelLoadFailure) {
		t.Fatalf("expected ErrModelLoadFailure for feature count mismatch, got %v", err)
	}

	names := StrokeSchema().Names()
	names[0], names[1] = names[1], names[0]
	reordered, err := NewRandomForest([]*DecisionTree{{nodes: []TreeNode{leafNode(0)}}}, []int{0, 1}, 10, names)
	if err != nil {
		t.Fatal(err)
	}
	if err := CheckCompatible(reordered, StrokeSchema()); !errors.Is(err, ErrModelLoadFailure) {
		t.Fatalf("expected ErrModelLoadFailure for reordered features, got %v", err)
	}
}
