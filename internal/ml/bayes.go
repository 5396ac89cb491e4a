// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"fmt"
	"math"
)

// GaussianNB is a fitted Gaussian naive Bayes classifier: class priors
// plus per-class per-feature means and variances.
type GaussianNB struct {
	Priors    []float64   `json:"priors"`
	Means     [][]float64 `json:"means"`
	Variances [][]float64 `json:"variances"`
}

const log2Pi = 1.8378770664093453

// PredictProba computes softmax-normalized class probabilities from
// Gaussian log-likelihoods. Log-space accumulation with a log-sum-exp
// normalization keeps small likelihood products from underflowing.
func (g *GaussianNB) PredictProba(scaled []float64) ([]float64, error) {
	if len(g.Priors) == 0 || len(g.Priors) != len(g.Means) || len(g.Means) != len(g.Variances) {
		return nil, fmt.Errorf("inconsistent naive bayes parameters")
	}

	logProbs := make([]float64, len(g.Priors))
	for c := range g.Priors {
		if len(g.Means[c]) != len(scaled) || len(g.Variances[c]) != len(scaled) {
			return nil, fmt.Errorf("class %d expects %d features, got %d", c, len(g.Means[c]), len(scaled))
		}
		lp := math.Log(g.Priors[c])
		for i, x := range scaled {
			v := g.Variances[c][i]
			if v <= 0 {
				return nil, fmt.Errorf("class %d feature %d has non-positive variance", c, i)
			}
			d := x - g.Means[c][i]
			lp += -0.5*(log2Pi+math.Log(v)) - d*d/(2*v)
		}
		logProbs[c] = lp
	}

	// log-sum-exp normalization
	maxLog := logProbs[0]
	for _, lp := range logProbs[1:] {
		if lp > maxLog {
			maxLog = lp
		}
	}
	var sum float64
	probs := make([]float64, len(logProbs))
	for c, lp := range logProbs {
		probs[c] = math.Exp(lp - maxLog)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}

// NumClasses returns the class count.
func (g *GaussianNB) NumClasses() int {
	return len(g.Priors)
}

// Kind reports probabilistic explanation capability.
func (g *GaussianNB) Kind() ModelKind {
	return ModelKindProbabilistic
}

func (g *GaussianNB) validate() error {
	if len(g.Priors) == 0 {
		return fmt.Errorf("naive bayes has no classes")
	}
	if len(g.Means) != len(g.Priors) || len(g.Variances) != len(g.Priors) {
		return fmt.Errorf("naive bayes parameter shapes disagree")
	}
	var total float64
	for c, p := range g.Priors {
		if p <= 0 {
			return fmt.Errorf("class %d prior %.4f not positive", c, p)
		}
		total += p
	}
	if math.Abs(total-1) > 1e-6 {
		return fmt.Errorf("priors sum to %.6f, want 1", total)
	}
	return nil
}
