// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package explain computes per-feature attribution for a specific crop
// prediction and renders it as a natural-language rationale for farmers.
// Attribution strategy is dispatched on the model's registered kind, and
// every failure path degrades to a template that restates the raw soil
// values instead of surfacing an error.
package explain

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/soil"
)

// ErrNoExplainer indicates the model kind has no attribution support.
var ErrNoExplainer = errors.New("no explainer for model kind")

// Explainer computes additive per-feature attribution scores for the
// probability of one class at one scaled input.
type Explainer interface {
	Attributions(scaled []float64, class int) ([]float64, error)
}

// ForKind selects the attribution strategy registered for the model
// kind that produced the primary prediction.
func ForKind(registry *ml.Registry, kind ml.ModelKind) (Explainer, error) {
	switch kind {
	case ml.ModelKindTreeEnsemble:
		return &TreeExplainer{Forest: registry.Forest}, nil
	case ml.ModelKindProbabilistic:
		return NewSamplingExplainer(registry.Bayes), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoExplainer, kind)
	}
}

// TreeExplainer attributes a forest prediction by decision-path deltas:
// crossing a split changes the class probability carried by the node,
// and that change is credited to the split feature. Contributions are
// averaged over trees, the same averaging the forest applies to its
// leaf distributions.
type TreeExplainer struct {
	Forest *ml.RandomForest
}

// Attributions returns one score per feature for the given class.
func (e *TreeExplainer) Attributions(scaled []float64, class int) ([]float64, error) {
	if e.Forest == nil || len(e.Forest.Trees) == 0 {
		return nil, fmt.Errorf("tree explainer: forest has no trees")
	}
	if class < 0 || class >= e.Forest.Classes {
		return nil, fmt.Errorf("tree explainer: class %d out of range [0,%d)", class, e.Forest.Classes)
	}

	total := make([]float64, len(scaled))
	for ti := range e.Forest.Trees {
		tree := &e.Forest.Trees[ti]
		path, err := tree.DecisionPath(scaled)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", ti, err)
		}
		for i := 0; i+1 < len(path); i++ {
			parent := &tree.Nodes[path[i]]
			child := &tree.Nodes[path[i+1]]
			if class >= len(parent.Value) || class >= len(child.Value) {
				return nil, fmt.Errorf("tree %d: node value narrower than class %d", ti, class)
			}
			if parent.Feature < 0 || parent.Feature >= len(total) {
				return nil, fmt.Errorf("tree %d: split feature %d out of range", ti, parent.Feature)
			}
			total[parent.Feature] += child.Value[class] - parent.Value[class]
		}
	}

	n := float64(len(e.Forest.Trees))
	for i := range total {
		total[i] /= n
	}
	return total, nil
}

// samplingBackgroundSize is the number of background samples used by the
// marginal-substitution approximation.
const samplingBackgroundSize = 50

// samplingSeed fixes the background draw so attributions are
// deterministic across requests and restarts.
const samplingSeed = 17

// SamplingExplainer approximates attribution for models without an
// exploitable internal structure. For each feature it measures how much
// the class probability drops when that feature is replaced by values
// drawn from a standard-normal background (the distribution of scaled
// features), holding the rest of the input fixed.
type SamplingExplainer struct {
	model      ml.Classifier
	background [][]float64
}

// NewSamplingExplainer creates a sampling explainer with its fixed
// background set.
func NewSamplingExplainer(model ml.Classifier) *SamplingExplainer {
	rng := rand.New(rand.NewSource(samplingSeed))
	background := make([][]float64, samplingBackgroundSize)
	for i := range background {
		row := make([]float64, soil.FeatureCount)
		for f := range row {
			row[f] = rng.NormFloat64()
		}
		background[i] = row
	}
	return &SamplingExplainer{model: model, background: background}
}

// Attributions returns one score per feature for the given class.
func (e *SamplingExplainer) Attributions(scaled []float64, class int) ([]float64, error) {
	if e.model == nil {
		return nil, fmt.Errorf("sampling explainer: no model")
	}
	if class < 0 || class >= e.model.NumClasses() {
		return nil, fmt.Errorf("sampling explainer: class %d out of range [0,%d)", class, e.model.NumClasses())
	}

	base, err := e.model.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("sampling explainer: %w", err)
	}
	baseProb := base[class]

	perturbed := make([]float64, len(scaled))
	scores := make([]float64, len(scaled))
	for f := range scaled {
		var sum float64
		for _, bg := range e.background {
			copy(perturbed, scaled)
			perturbed[f] = bg[f]
			probs, err := e.model.PredictProba(perturbed)
			if err != nil {
				return nil, fmt.Errorf("sampling explainer: %w", err)
			}
			sum += probs[class]
		}
		scores[f] = baseProb - sum/float64(len(e.background))
	}

	return scores, nil
}
