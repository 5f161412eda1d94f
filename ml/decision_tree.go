package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DecisionTree is a single CART tree stored as a flat node array. The root is
// node 0 and every child index is greater than its parent's.
type DecisionTree struct {
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx    int       `json:"feature_idx"`
	Threshold     float64   `json:"threshold"`
	LeftChild     int       `json:"left_child"`
	RightChild    int       `json:"right_child"`
	ClassLabel    int       `json:"class_label"`
	IsLeaf        bool      `json:"is_leaf"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}, nil
}

func (dt *DecisionTree) Predict(features FeatureVector) (int, error) {
	leaf, err := dt.leaf(features)
	if err != nil {
		return 0, err
	}
	return leaf.ClassLabel, nil
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []TreeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return err
	}
	if err := validateNodes(nodes); err != nil {
		return err
	}
	dt.nodes = nodes
	return nil
}

func (dt *DecisionTree) leaf(features FeatureVector) (TreeNode, error) {
	if len(dt.nodes) == 0 {
		return TreeNode{}, errors.New("model not loaded")
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node, nil
		}
		if node.FeatureIdx >= len(features) {
			return TreeNode{}, fmt.Errorf("%w: feature index %d out of range for %d features",
				ErrPredictionFailed, node.FeatureIdx, len(features))
		}
		// features are float32 at fit time, thresholds are float64
		if float64(float32(features[node.FeatureIdx])) <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
}

func validateNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("node %d: negative feature index", i)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) ||
			node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: invalid children %d/%d", i, node.LeftChild, node.RightChild)
		}
	}
	return nil
}
