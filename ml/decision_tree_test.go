package ml

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func leafNode(label int) TreeNode {
	return TreeNode{FeatureIdx: -1, LeftChild: -1, RightChild: -1, ClassLabel: label, IsLeaf: true}
}

// strokeTreeNodes splits on age, then on heart_disease.
func strokeTreeNodes() []TreeNode {
	return []TreeNode{
		{FeatureIdx: 1, Threshold: 60, LeftChild: 1, RightChild: 2},
		leafNode(0),
		{FeatureIdx: 3, Threshold: 0.5, LeftChild: 3, RightChild: 4},
		leafNode(0),
		leafNode(1),
	}
}

func writeArtifact(t *testing.T, dir, name string, v interface{}) string {
	t.Helper()
	payload, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDecisionTreePredict(t *testing.T) {
	tree, err := NewDecisionTree(strokeTreeNodes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := tree.Predict(exampleVector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}

	younger := append(FeatureVector(nil), exampleVector...)
	younger[1] = 40
	if label, _ := tree.Predict(younger); label != 0 {
		t.Fatalf("expected label 0, got %d", label)
	}
}

func TestDecisionTreeLoad(t *testing.T) {
	path := writeArtifact(t, t.TempDir(), "tree.json", strokeTreeNodes())

	tree := &DecisionTree{}
	if err := tree.Load(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label, err := tree.Predict(exampleVector); err != nil || label != 1 {
		t.Fatalf("expected label 1, got %d (%v)", label, err)
	}
}

func TestDecisionTreeRejectsCycles(t *testing.T) {
	nodes := []TreeNode{
		{FeatureIdx: 0, Threshold: 1, LeftChild: 0, RightChild: 1},
		leafNode(0),
	}
	if _, err := NewDecisionTree(nodes); err == nil {
		t.Fatal("expected error for self-referencing node")
	}
	if _, err := NewDecisionTree(nil); err == nil {
		t.Fatal("expected error for empty tree")
	}
}

func TestDecisionTreeThresholdComparedAtFloat32(t *testing.T) {
	// 228.69 is stored as 228.69000244 in float32, above this threshold.
	tree, err := NewDecisionTree([]TreeNode{
		{FeatureIdx: 7, Threshold: 228.69000001, LeftChild: 1, RightChild: 2},
		leafNode(0),
		leafNode(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	label, err := tree.Predict(exampleVector)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != 1 {
		t.Fatalf("expected label 1, got %d", label)
	}
}
