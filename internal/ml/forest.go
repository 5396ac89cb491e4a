// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import "fmt"

// TreeNode is one node of a decision tree in flattened array form.
// Internal nodes route on Feature/Threshold; leaves have Feature == -1.
// Every node carries the class probability distribution of the training
// samples that reached it, which is what path attribution differences.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Value     []float64 `json:"value"`
}

// IsLeaf reports whether the node is terminal.
func (n *TreeNode) IsLeaf() bool {
	return n.Feature < 0
}

// DecisionTree is a single fitted tree. Node 0 is the root.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// DecisionPath walks the tree for one sample and returns the node indices
// visited from root to leaf inclusive.
func (t *DecisionTree) DecisionPath(scaled []float64) ([]int, error) {
	if len(t.Nodes) == 0 {
		return nil, fmt.Errorf("empty tree")
	}
	path := make([]int, 0, 8)
	idx := 0
	for {
		path = append(path, idx)
		node := &t.Nodes[idx]
		if node.IsLeaf() {
			return path, nil
		}
		if node.Feature >= len(scaled) {
			return nil, fmt.Errorf("tree references feature %d, sample has %d", node.Feature, len(scaled))
		}
		// Left on <=, matching the convention of the training pipeline.
		if scaled[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("tree child index %d out of range", idx)
		}
	}
}

// predict returns the class distribution at the leaf reached by scaled.
func (t *DecisionTree) predict(scaled []float64) ([]float64, error) {
	path, err := t.DecisionPath(scaled)
	if err != nil {
		return nil, err
	}
	return t.Nodes[path[len(path)-1]].Value, nil
}

// RandomForest is an ensemble of decision trees voting by averaged leaf
// distributions.
type RandomForest struct {
	Trees   []DecisionTree `json:"trees"`
	Classes int            `json:"classes"`
}

// PredictProba averages the leaf class distributions across all trees.
func (f *RandomForest) PredictProba(scaled []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("forest has no trees")
	}
	probs := make([]float64, f.Classes)
	for i := range f.Trees {
		leaf, err := f.Trees[i].predict(scaled)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		if len(leaf) != f.Classes {
			return nil, fmt.Errorf("tree %d leaf width %d, want %d", i, len(leaf), f.Classes)
		}
		for c, p := range leaf {
			probs[c] += p
		}
	}
	n := float64(len(f.Trees))
	for c := range probs {
		probs[c] /= n
	}
	return probs, nil
}

// NumClasses returns the class count the forest was trained on.
func (f *RandomForest) NumClasses() int {
	return f.Classes
}

// Kind reports tree-ensemble explanation capability.
func (f *RandomForest) Kind() ModelKind {
	return ModelKindTreeEnsemble
}

// validate checks structural consistency after loading an artifact.
func (f *RandomForest) validate() error {
	if f.Classes <= 0 {
		return fmt.Errorf("forest class count %d invalid", f.Classes)
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("forest has no trees")
	}
	for ti := range f.Trees {
		nodes := f.Trees[ti].Nodes
		if len(nodes) == 0 {
			return fmt.Errorf("tree %d has no nodes", ti)
		}
		for ni := range nodes {
			n := &nodes[ni]
			if len(n.Value) != f.Classes {
				return fmt.Errorf("tree %d node %d value width %d, want %d", ti, ni, len(n.Value), f.Classes)
			}
			if n.IsLeaf() {
				continue
			}
			if n.Left < 0 || n.Left >= len(nodes) || n.Right < 0 || n.Right >= len(nodes) {
				return fmt.Errorf("tree %d node %d child out of range", ti, ni)
			}
		}
	}
	return nil
}
