// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package explain

import (
	"math"
	"testing"

	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/soil"
)

// attributionForest has one tree splitting on feature 0: the root
// carries [0.5,0.5], left leaf [0.9,0.1], right leaf [0.1,0.9].
// Crossing the split moves class-0 probability by exactly ±0.4, all
// credited to feature 0.
func attributionForest() *ml.RandomForest {
	return &ml.RandomForest{
		Classes: 2,
		Trees: []ml.DecisionTree{
			{Nodes: []ml.TreeNode{
				{Feature: 0, Threshold: 0, Left: 1, Right: 2, Value: []float64{0.5, 0.5}},
				{Feature: -1, Value: []float64{0.9, 0.1}},
				{Feature: -1, Value: []float64{0.1, 0.9}},
			}},
		},
	}
}

func TestTreeExplainerSingleSplit(t *testing.T) {
	e := &TreeExplainer{Forest: attributionForest()}

	tests := []struct {
		name   string
		scaled []float64
		class  int
		want   float64
	}{
		{name: "left branch supports class 0", scaled: []float64{-1, 0, 0, 0, 0, 0}, class: 0, want: 0.4},
		{name: "right branch opposes class 0", scaled: []float64{1, 0, 0, 0, 0, 0}, class: 0, want: -0.4},
		{name: "right branch supports class 1", scaled: []float64{1, 0, 0, 0, 0, 0}, class: 1, want: 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, err := e.Attributions(tt.scaled, tt.class)
			if err != nil {
				t.Fatalf("Attributions() error = %v", err)
			}
			if math.Abs(scores[0]-tt.want) > 1e-12 {
				t.Errorf("feature 0 score = %f, want %f", scores[0], tt.want)
			}
			for f := 1; f < len(scores); f++ {
				if scores[f] != 0 {
					t.Errorf("feature %d score = %f, want 0 for unused feature", f, scores[f])
				}
			}
		})
	}
}

func TestTreeExplainerAveragesOverTrees(t *testing.T) {
	forest := attributionForest()
	// A second tree that is a single leaf contributes nothing, halving
	// the per-tree average.
	forest.Trees = append(forest.Trees, ml.DecisionTree{
		Nodes: []ml.TreeNode{{Feature: -1, Value: []float64{0.5, 0.5}}},
	})

	e := &TreeExplainer{Forest: forest}
	scores, err := e.Attributions([]float64{-1, 0, 0, 0, 0, 0}, 0)
	if err != nil {
		t.Fatalf("Attributions() error = %v", err)
	}
	if math.Abs(scores[0]-0.2) > 1e-12 {
		t.Errorf("feature 0 score = %f, want 0.2 averaged over two trees", scores[0])
	}
}

func TestTreeExplainerAttributionSumsToPathDelta(t *testing.T) {
	// Invariant of path attribution: per-tree scores sum to
	// leaf value minus root value for the chosen class.
	forest := attributionForest()
	e := &TreeExplainer{Forest: forest}

	scaled := []float64{1, 0, 0, 0, 0, 0}
	scores, err := e.Attributions(scaled, 0)
	if err != nil {
		t.Fatal(err)
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	root := forest.Trees[0].Nodes[0].Value[0]
	leaf := forest.Trees[0].Nodes[2].Value[0]
	if math.Abs(sum-(leaf-root)) > 1e-12 {
		t.Errorf("attribution sum = %f, want leaf-root delta %f", sum, leaf-root)
	}
}

func TestTreeExplainerErrors(t *testing.T) {
	e := &TreeExplainer{Forest: attributionForest()}

	if _, err := e.Attributions([]float64{0, 0, 0, 0, 0, 0}, 5); err == nil {
		t.Error("Attributions(class out of range) error = nil, want error")
	}

	empty := &TreeExplainer{Forest: &ml.RandomForest{Classes: 2}}
	if _, err := empty.Attributions([]float64{0, 0, 0, 0, 0, 0}, 0); err == nil {
		t.Error("Attributions(empty forest) error = nil, want error")
	}
}

// separatedBayes puts class 0 at -2 and class 1 at +2 on feature 0 only;
// the remaining features are uninformative.
func separatedBayes() *ml.GaussianNB {
	uninformative := func(first float64) []float64 {
		row := make([]float64, soil.FeatureCount)
		row[0] = first
		return row
	}
	ones := func() []float64 {
		row := make([]float64, soil.FeatureCount)
		for i := range row {
			row[i] = 1
		}
		return row
	}
	return &ml.GaussianNB{
		Priors:    []float64{0.5, 0.5},
		Means:     [][]float64{uninformative(-2), uninformative(2)},
		Variances: [][]float64{ones(), ones()},
	}
}

func TestSamplingExplainerInformativeFeatureDominates(t *testing.T) {
	e := NewSamplingExplainer(separatedBayes())

	// Scaled input sitting on the class-1 mean.
	scaled := []float64{2, 0, 0, 0, 0, 0}
	scores, err := e.Attributions(scaled, 1)
	if err != nil {
		t.Fatalf("Attributions() error = %v", err)
	}

	// Replacing feature 0 with background values pulls probability away
	// from class 1, so its attribution is positive and the largest.
	if scores[0] <= 0 {
		t.Errorf("feature 0 score = %f, want positive", scores[0])
	}
	for f := 1; f < len(scores); f++ {
		if math.Abs(scores[f]) >= math.Abs(scores[0]) {
			t.Errorf("feature %d |score| = %f, want below feature 0 %f",
				f, math.Abs(scores[f]), math.Abs(scores[0]))
		}
	}
}

func TestSamplingExplainerDeterministic(t *testing.T) {
	scaled := []float64{2, 0.5, -0.5, 0, 1, -1}

	a, err := NewSamplingExplainer(separatedBayes()).Attributions(scaled, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSamplingExplainer(separatedBayes()).Attributions(scaled, 0)
	if err != nil {
		t.Fatal(err)
	}

	for f := range a {
		if a[f] != b[f] {
			t.Errorf("feature %d differs across runs: %f vs %f", f, a[f], b[f])
		}
	}
}

func TestForKind(t *testing.T) {
	reg := &ml.Registry{Forest: attributionForest(), Bayes: separatedBayes()}

	tests := []struct {
		name    string
		kind    ml.ModelKind
		wantErr bool
	}{
		{name: "tree ensemble", kind: ml.ModelKindTreeEnsemble},
		{name: "probabilistic", kind: ml.ModelKindProbabilistic},
		{name: "other has no explainer", kind: ml.ModelKindOther, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ForKind(reg, tt.kind)
			if (err != nil) != tt.wantErr {
				t.Errorf("ForKind(%s) error = %v, wantErr %v", tt.kind, err, tt.wantErr)
			}
		})
	}
}
