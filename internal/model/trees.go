package model

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// KindXGBoost identifies a gradient boosted tree ensemble dumped as JSON.
const KindXGBoost = "xgboost"

// TreeNode is one node of a dumped regression tree. Split nodes carry Split,
// SplitCondition and the Yes/No/Missing child ids; leaves carry Leaf.
type TreeNode struct {
	NodeID         int         `json:"nodeid"`
	Depth          int         `json:"depth,omitempty"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition,omitempty"`
	Yes            int         `json:"yes,omitempty"`
	No             int         `json:"no,omitempty"`
	Missing        int         `json:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*TreeNode `json:"children,omitempty"`

	feature int
	yes     *TreeNode
	no      *TreeNode
	missing *TreeNode
}

// TreeEnsemble is an additive ensemble of regression trees:
// base_score + Σ leaf(tree, x).
type TreeEnsemble struct {
	FeatureNames []string    `json:"features"`
	BaseScore    float64     `json:"base_score"`
	Trees        []*TreeNode `json:"trees"`
}

// Features implements Predictor.
func (e *TreeEnsemble) Features() []string {
	return append([]string(nil), e.FeatureNames...)
}

// Predict implements Predictor. A NaN feature value follows the node's missing
// branch.
func (e *TreeEnsemble) Predict(fv FeatureVector) (float64, error) {
	if err := CheckSchema(e.FeatureNames, fv); err != nil {
		return 0, err
	}
	sum := e.BaseScore
	for i, tree := range e.Trees {
		v, err := tree.eval(fv.Values)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += v
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("tree ensemble produced non-finite prediction")
	}
	return sum, nil
}

// prepare resolves split feature names and child links for every tree. It must
// run once before Predict.
func (e *TreeEnsemble) prepare() error {
	if len(e.FeatureNames) == 0 {
		return fmt.Errorf("tree ensemble has no features")
	}
	if len(e.Trees) == 0 {
		return fmt.Errorf("tree ensemble has no trees")
	}
	for i, tree := range e.Trees {
		if tree == nil {
			return fmt.Errorf("tree %d is null", i)
		}
		if err := tree.resolve(e.FeatureNames); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (n *TreeNode) resolve(features []string) error {
	if n.Leaf != nil {
		if len(n.Children) > 0 {
			return fmt.Errorf("node %d is both a leaf and a split", n.NodeID)
		}
		return nil
	}
	idx, err := featureIndex(features, n.Split)
	if err != nil {
		return fmt.Errorf("node %d: %w", n.NodeID, err)
	}
	n.feature = idx

	byID := make(map[int]*TreeNode, len(n.Children))
	for _, child := range n.Children {
		if child == nil {
			return fmt.Errorf("node %d has a null child", n.NodeID)
		}
		byID[child.NodeID] = child
	}
	var ok bool
	if n.yes, ok = byID[n.Yes]; !ok {
		return fmt.Errorf("node %d: yes branch %d is not a child", n.NodeID, n.Yes)
	}
	if n.no, ok = byID[n.No]; !ok {
		return fmt.Errorf("node %d: no branch %d is not a child", n.NodeID, n.No)
	}
	if n.missing, ok = byID[n.Missing]; !ok {
		n.missing = n.yes
	}
	for _, child := range n.Children {
		if err := child.resolve(features); err != nil {
			return err
		}
	}
	return nil
}

func (n *TreeNode) eval(x []float64) (float64, error) {
	node := n
	for node.Leaf == nil {
		if node.yes == nil || node.no == nil {
			return 0, fmt.Errorf("node %d is not resolved", node.NodeID)
		}
		v := x[node.feature]
		switch {
		case math.IsNaN(v):
			node = node.missing
		case v < node.SplitCondition:
			node = node.yes
		default:
			node = node.no
		}
	}
	return *node.Leaf, nil
}

// featureIndex maps a split name to a column. Dumps made without feature names
// use "f0", "f1", ...
func featureIndex(features []string, split string) (int, error) {
	if i := slices.Index(features, split); i >= 0 {
		return i, nil
	}
	if rest, ok := strings.CutPrefix(split, "f"); ok {
		if i, err := strconv.Atoi(rest); err == nil && i >= 0 && i < len(features) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}
