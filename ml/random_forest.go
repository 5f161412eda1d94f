package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// RandomForest votes over a set of decision trees. When every reached leaf
// carries class probabilities the forest averages them, otherwise it takes the
// majority of the leaf labels. Ties go to the class listed first.
type RandomForest struct {
	trees        []*DecisionTree
	classes      []int
	nFeatures    int
	featureNames []string
}

type randomForestArtifact struct {
	ModelType    string       `json:"model_type"`
	NFeatures    int          `json:"n_features"`
	FeatureNames []string     `json:"feature_names,omitempty"`
	Classes      []int        `json:"classes"`
	Trees        [][]TreeNode `json:"trees"`
}

func NewRandomForest(trees []*DecisionTree, classes []int, nFeatures int, featureNames []string) (*RandomForest, error) {
	if len(trees) == 0 {
		return nil, errors.New("random forest has no trees")
	}
	if len(classes) == 0 {
		return nil, errors.New("random forest has no classes")
	}
	if nFeatures <= 0 {
		return nil, errors.New("random forest n_features must be positive")
	}
	if featureNames != nil && len(featureNames) != nFeatures {
		return nil, fmt.Errorf("random forest lists %d feature names for %d features", len(featureNames), nFeatures)
	}
	seen := make(map[int]bool, len(classes))
	for _, class := range classes {
		if seen[class] {
			return nil, fmt.Errorf("random forest has duplicate class %d", class)
		}
		seen[class] = true
	}
	for i, tree := range trees {
		for j, node := range tree.nodes {
			if node.IsLeaf {
				if !seen[node.ClassLabel] {
					return nil, fmt.Errorf("tree %d node %d: unknown class %d", i, j, node.ClassLabel)
				}
				if node.Probabilities != nil && len(node.Probabilities) != len(classes) {
					return nil, fmt.Errorf("tree %d node %d: %d probabilities for %d classes", i, j, len(node.Probabilities), len(classes))
				}
				continue
			}
			if node.FeatureIdx >= nFeatures {
				return nil, fmt.Errorf("tree %d node %d: feature index %d out of range", i, j, node.FeatureIdx)
			}
		}
	}
	return &RandomForest{
		trees:        trees,
		classes:      append([]int(nil), classes...),
		nFeatures:    nFeatures,
		featureNames: append([]string(nil), featureNames...),
	}, nil
}

func LoadRandomForest(path string) (*RandomForest, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact randomForestArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, err
	}
	if artifact.ModelType != "" && artifact.ModelType != "random_forest" {
		return nil, fmt.Errorf("artifact holds %q, not random_forest", artifact.ModelType)
	}
	trees := make([]*DecisionTree, len(artifact.Trees))
	for i, nodes := range artifact.Trees {
		tree, err := NewDecisionTree(nodes)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees[i] = tree
	}
	return NewRandomForest(trees, artifact.Classes, artifact.NFeatures, artifact.FeatureNames)
}

func (rf *RandomForest) Predict(vector FeatureVector) (int, error) {
	if len(vector) != rf.nFeatures {
		return 0, fmt.Errorf("%w: random forest expects %d features, got %d", ErrPredictionFailed, rf.nFeatures, len(vector))
	}
	votes := make([]float64, len(rf.classes))
	proba := make([]float64, len(rf.classes))
	soft := true
	for _, tree := range rf.trees {
		leaf, err := tree.leaf(vector)
		if err != nil {
			return 0, err
		}
		votes[rf.classIndex(leaf.ClassLabel)]++
		if leaf.Probabilities == nil {
			soft = false
			continue
		}
		for i, p := range leaf.Probabilities {
			proba[i] += p
		}
	}
	if soft {
		return rf.classes[argmax(proba)], nil
	}
	return rf.classes[argmax(votes)], nil
}

func (rf *RandomForest) NumFeatures() int {
	return rf.nFeatures
}

func (rf *RandomForest) FeatureNames() []string {
	if len(rf.featureNames) == 0 {
		return nil
	}
	return append([]string(nil), rf.featureNames...)
}

func (rf *RandomForest) classIndex(label int) int {
	for i, class := range rf.classes {
		if class == label {
			return i
		}
	}
	return 0
}

// argmax returns the first index holding the largest value.
func argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}
