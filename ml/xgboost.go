package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// XGBoost evaluates a gradient boosted tree ensemble exported with XGBoost's
// JSON model dump. Only binary:logistic and binary:logitraw are supported.
type XGBoost struct {
	trees        []boostedTree
	baseMargin   float64
	nFeatures    int
	featureNames []string
}

type xgboostArtifact struct {
	ModelType    string       `json:"model_type"`
	Objective    string       `json:"objective"`
	BaseScore    *float64     `json:"base_score"`
	NFeatures    int          `json:"n_features"`
	FeatureNames []string     `json:"feature_names,omitempty"`
	Trees        []DumpedNode `json:"trees"`
}

// DumpedNode is one node of an XGBoost JSON dump.
type DumpedNode struct {
	NodeID         int          `json:"nodeid"`
	Split          string       `json:"split,omitempty"`
	SplitCondition float64      `json:"split_condition,omitempty"`
	Yes            int          `json:"yes,omitempty"`
	No             int          `json:"no,omitempty"`
	Missing        int          `json:"missing,omitempty"`
	Leaf           *float64     `json:"leaf,omitempty"`
	Children       []DumpedNode `json:"children,omitempty"`
}

type boostedNode struct {
	feature   int
	threshold float64
	yes       int
	no        int
	missing   int
	leaf      float64
	isLeaf    bool
}

// boostedTree is indexed by node id.
type boostedTree []boostedNode

func LoadXGBoost(path string) (*XGBoost, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var artifact xgboostArtifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, err
	}
	if artifact.ModelType != "" && artifact.ModelType != "xgboost" {
		return nil, fmt.Errorf("artifact holds %q, not xgboost", artifact.ModelType)
	}
	return NewXGBoost(artifact.Trees, artifact.Objective, artifact.BaseScore, artifact.NFeatures, artifact.FeatureNames)
}

// NewXGBoost builds the ensemble. baseScore defaults to 0.5, XGBoost's own
// default, when nil.
func NewXGBoost(dump []DumpedNode, objective string, baseScore *float64, nFeatures int, featureNames []string) (*XGBoost, error) {
	if len(dump) == 0 {
		return nil, errors.New("xgboost model has no trees")
	}
	if featureNames != nil {
		if nFeatures == 0 {
			nFeatures = len(featureNames)
		}
		if len(featureNames) != nFeatures {
			return nil, fmt.Errorf("xgboost lists %d feature names for %d features", len(featureNames), nFeatures)
		}
	}
	if nFeatures <= 0 {
		return nil, errors.New("xgboost n_features must be positive")
	}

	score := 0.5
	if baseScore != nil {
		score = *baseScore
	}
	var margin float64
	switch objective {
	case "", "binary:logistic":
		if score <= 0 || score >= 1 {
			return nil, fmt.Errorf("base_score %v outside (0, 1)", score)
		}
		margin = math.Log(score / (1 - score))
	case "binary:logitraw":
		margin = score
	default:
		return nil, fmt.Errorf("unsupported objective %q", objective)
	}

	index := make(map[string]int, len(featureNames))
	for i, name := range featureNames {
		index[name] = i
	}
	model := &XGBoost{
		trees:        make([]boostedTree, len(dump)),
		baseMargin:   margin,
		nFeatures:    nFeatures,
		featureNames: append([]string(nil), featureNames...),
	}
	for i, root := range dump {
		tree, err := flattenTree(root, index, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		model.trees[i] = tree
	}
	return model, nil
}

func (m *XGBoost) Predict(vector FeatureVector) (int, error) {
	if len(vector) != m.nFeatures {
		return 0, fmt.Errorf("%w: xgboost expects %d features, got %d", ErrPredictionFailed, m.nFeatures, len(vector))
	}
	if m.Probability(vector) > 0.5 {
		return 1, nil
	}
	return 0, nil
}

// Probability returns the positive class probability for a vector of the
// right length.
func (m *XGBoost) Probability(vector FeatureVector) float64 {
	margin := m.baseMargin
	for _, tree := range m.trees {
		margin += tree.eval(vector)
	}
	return 1 / (1 + math.Exp(-margin))
}

func (m *XGBoost) NumFeatures() int {
	return m.nFeatures
}

func (m *XGBoost) FeatureNames() []string {
	if len(m.featureNames) == 0 {
		return nil
	}
	return append([]string(nil), m.featureNames...)
}

// eval compares in float32, the precision XGBoost trains and predicts in.
func (t boostedTree) eval(vector FeatureVector) float64 {
	id := 0
	for {
		node := t[id]
		if node.isLeaf {
			return node.leaf
		}
		x := vector[node.feature]
		switch {
		case math.IsNaN(x):
			id = node.missing
		case float32(x) < float32(node.threshold):
			id = node.yes
		default:
			id = node.no
		}
	}
}

func flattenTree(root DumpedNode, index map[string]int, nFeatures int) (boostedTree, error) {
	nodes := make(map[int]DumpedNode)
	var walk func(n DumpedNode) error
	walk = func(n DumpedNode) error {
		if _, dup := nodes[n.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		nodes[n.NodeID] = n
		for _, child := range n.Children {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	if _, ok := nodes[0]; !ok {
		return nil, errors.New("missing root node 0")
	}

	maxID := 0
	for id := range nodes {
		if id < 0 {
			return nil, fmt.Errorf("negative node id %d", id)
		}
		if id > maxID {
			maxID = id
		}
	}
	// Pruned trees may leave gaps in the id space.
	tree := make(boostedTree, maxID+1)
	for id, n := range nodes {
		if n.Leaf != nil {
			tree[id] = boostedNode{leaf: *n.Leaf, isLeaf: true}
			continue
		}
		feature, err := resolveSplit(n.Split, index, nFeatures)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		for _, child := range []int{n.Yes, n.No, n.Missing} {
			if _, ok := nodes[child]; !ok || child <= id {
				return nil, fmt.Errorf("node %d: invalid child %d", id, child)
			}
		}
		tree[id] = boostedNode{
			feature:   feature,
			threshold: n.SplitCondition,
			yes:       n.Yes,
			no:        n.No,
			missing:   n.Missing,
		}
	}
	return tree, nil
}

// resolveSplit accepts a feature name from the artifact or XGBoost's default
// "f<index>" naming.
func resolveSplit(split string, index map[string]int, nFeatures int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < nFeatures {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}
