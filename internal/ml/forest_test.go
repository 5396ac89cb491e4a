// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"math"
	"testing"
)

// twoClassTree splits on feature 0 at 0.5: left leaf favors class 0,
// right leaf favors class 1.
func twoClassTree() DecisionTree {
	return DecisionTree{Nodes: []TreeNode{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2, Value: []float64{0.5, 0.5}},
		{Feature: -1, Value: []float64{0.9, 0.1}},
		{Feature: -1, Value: []float64{0.2, 0.8}},
	}}
}

func TestDecisionTreeDecisionPath(t *testing.T) {
	tree := twoClassTree()

	tests := []struct {
		name     string
		sample   []float64
		wantPath []int
	}{
		{"routes left on lte", []float64{0.5, 0}, []int{0, 1}},
		{"routes right on gt", []float64{0.51, 0}, []int{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := tree.DecisionPath(tt.sample)
			if err != nil {
				t.Fatalf("DecisionPath() error = %v", err)
			}
			if len(path) != len(tt.wantPath) {
				t.Fatalf("path = %v, want %v", path, tt.wantPath)
			}
			for i := range path {
				if path[i] != tt.wantPath[i] {
					t.Errorf("path = %v, want %v", path, tt.wantPath)
					break
				}
			}
		})
	}
}

func TestRandomForestPredictProba(t *testing.T) {
	forest := &RandomForest{
		Classes: 2,
		Trees: []DecisionTree{
			twoClassTree(),
			{Nodes: []TreeNode{
				{Feature: -1, Value: []float64{0.4, 0.6}},
			}},
		},
	}

	probs, err := forest.PredictProba([]float64{1, 0})
	if err != nil {
		t.Fatalf("PredictProba() error = %v", err)
	}
	// Average of [0.2,0.8] and [0.4,0.6].
	want := []float64{0.3, 0.7}
	for c := range want {
		if math.Abs(probs[c]-want[c]) > 1e-12 {
			t.Errorf("probs = %v, want %v", probs, want)
			break
		}
	}

	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("probabilities sum to %f, want 1", sum)
	}
}

func TestRandomForestValidate(t *testing.T) {
	tests := []struct {
		name    string
		forest  RandomForest
		wantErr bool
	}{
		{
			name:   "valid forest",
			forest: RandomForest{Classes: 2, Trees: []DecisionTree{twoClassTree()}},
		},
		{
			name:    "no trees",
			forest:  RandomForest{Classes: 2},
			wantErr: true,
		},
		{
			name: "leaf width mismatch",
			forest: RandomForest{Classes: 3, Trees: []DecisionTree{
				{Nodes: []TreeNode{{Feature: -1, Value: []float64{1, 0}}}},
			}},
			wantErr: true,
		},
		{
			name: "child index out of range",
			forest: RandomForest{Classes: 2, Trees: []DecisionTree{
				{Nodes: []TreeNode{
					{Feature: 0, Threshold: 0, Left: 5, Right: 6, Value: []float64{0.5, 0.5}},
				}},
			}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.forest.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
