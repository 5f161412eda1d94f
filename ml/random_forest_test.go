package ml

import (
	"errors"
	"testing"
)

func constantTree(t *testing.T, label int, probabilities []float64) *DecisionTree {
	t.Helper()
	leaf := leafNode(label)
	leaf.Probabilities = probabilities
	tree, err := NewDecisionTree([]TreeNode{leaf})
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func TestRandomForestMajorityVote(t *testing.T) {
	trees := []*DecisionTree{constantTree(t, 1, nil), constantTree(t, 0, nil), constantTree(t, 1, nil)}
	forest, err := NewRandomForest(trees, []int{0, 1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := forest.Predict(exampleVector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestRandomForestTieGoesToFirstClass(t *testing.T) {
	trees := []*DecisionTree{constantTree(t, 1, nil), constantTree(t, 0, nil)}
	forest, err := NewRandomForest(trees, []int{0, 1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		if label, _ := forest.Predict(exampleVector); label != 0 {
			t.Fatalf("expected label 0, got %d", label)
		}
	}
}

func TestRandomForestSoftVote(t *testing.T) {
	// Two weak votes for 0 are outweighed by one confident vote for 1.
	trees := []*DecisionTree{
		constantTree(t, 0, []float64{0.55, 0.45}),
		constantTree(t, 0, []float64{0.55, 0.45}),
		constantTree(t, 1, []float64{0.0, 1.0}),
	}
	forest, err := NewRandomForest(trees, []int{0, 1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label, _ := forest.Predict(exampleVector); label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}

func TestRandomForestRejectsWrongLength(t *testing.T) {
	forest, err := NewRandomForest([]*DecisionTree{constantTree(t, 1, nil)}, []int{0, 1}, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := forest.Predict(FeatureVector{1, 2, 3}); !errors.Is(err, ErrPredictionFailed) {
		t.Fatalf("expected ErrPredictionFailed, got %v", err)
	}
}

func TestRandomForestValidation(t *testing.T) {
	if _, err := NewRandomForest(nil, []int{0, 1}, 10, nil); err == nil {
		t.Fatal("expected error for forest without trees")
	}
	if _, err := NewRandomForest([]*DecisionTree{constantTree(t, 2, nil)}, []int{0, 1}, 10, nil); err == nil {
		t.Fatal("expected error for leaf with unknown class")
	}
	if _, err := NewRandomForest([]*DecisionTree{constantTree(t, 1, []float64{1})}, []int{0, 1}, 10, nil); err == nil {
		t.Fatal("expected error for probability/class mismatch")
	}
	if _, err := NewRandomForest([]*DecisionTree{constantTree(t, 1, nil)}, []int{0, 1}, 10, []string{"age"}); err == nil {
		t.Fatal("expected error for feature name count mismatch")
	}
}

func TestLoadRandomForest(t *testing.T) {
	artifact := randomForestArtifact{
		ModelType:    "random_forest",
		NFeatures:    10,
		FeatureNames: StrokeSchema().Names(),
		Classes:      []int{0, 1},
		Trees:        [][]TreeNode{strokeTreeNodes(), strokeTreeNodes(), {leafNode(0)}},
	}
	path := writeArtifact(t, t.TempDir(), "random_forest.json", artifact)

	forest, err := LoadRandomForest(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label, err := forest.Predict(exampleVector); err != nil || label != 1 {
		t.Fatalf("expected label 1, got %d (%v)", label, err)
	}
	if forest.NumFeatures() != 10 || len(forest.FeatureNames()) != 10 {
		t.Fatalf("unexpected feature description: %d %v", forest.NumFeatures(), forest.FeatureNames())
	}
}
