// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

// ModelKind tags a classifier with the explanation strategy it supports.
// The tag is fixed at model-registration time instead of being sniffed
// from the concrete type at explanation time.
type ModelKind string

const (
	// ModelKindTreeEnsemble supports exact decision-path attribution.
	ModelKindTreeEnsemble ModelKind = "tree_ensemble"
	// ModelKindProbabilistic uses a sampling-based attribution approximation.
	ModelKindProbabilistic ModelKind = "probabilistic"
	// ModelKindOther has no attribution support; explanations fall back
	// to the template renderer.
	ModelKindOther ModelKind = "other"
)

// Classifier is a fitted multi-class model operating on scaled features.
type Classifier interface {
	// PredictProba returns the class probability distribution for one
	// scaled feature vector.
	PredictProba(scaled []float64) ([]float64, error)

	// NumClasses returns the width of the probability distribution.
	NumClasses() int

	// Kind reports the explanation capability of the model.
	Kind() ModelKind
}

// argmax returns the index of the largest probability. Ties break toward
// the lower index, matching encoder order.
func argmax(probs []float64) int {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}
