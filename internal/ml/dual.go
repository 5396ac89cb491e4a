// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"fmt"

	"github.com/securecrop/securecrop/internal/soil"
)

// DualPrediction is the reconciled output of both classifiers. Callers
// displaying an alternative suggestion depend on the individual
// predictions being present, not just the primary pick.
type DualPrediction struct {
	ForestCrop        string  `json:"rf_prediction"`
	ForestProbability float64 `json:"rf_probability"`
	BayesCrop         string  `json:"nb_prediction"`
	BayesProbability  float64 `json:"nb_probability"`
	ModelsAgree       bool    `json:"models_agree"`
	Primary           string  `json:"primary_recommendation"`
	Confidence        float64 `json:"confidence"`

	// PrimaryKind identifies which model produced the primary pick, so
	// the explainer can dispatch the matching attribution strategy.
	PrimaryKind ModelKind `json:"-"`
	// PrimaryClass is the encoded class index of the primary pick.
	PrimaryClass int `json:"-"`
	// Scaled is the standardized feature vector both models scored.
	Scaled []float64 `json:"-"`
}

// PredictDual scales the raw features once and runs both classifiers.
//
// Agreement rule: identical decoded labels make the shared label primary
// with the max of the two probabilities as confidence. On disagreement
// the higher-probability model wins outright. No calibration is applied
// across the two models before comparing probabilities.
func (r *Registry) PredictDual(features [soil.FeatureCount]float64) (*DualPrediction, error) {
	scaled, err := r.Scaler.Transform(features[:])
	if err != nil {
		return nil, fmt.Errorf("scale features: %w", err)
	}

	forestProbs, err := r.Forest.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("forest prediction: %w", err)
	}
	forestClass := argmax(forestProbs)
	forestCrop, err := r.Encoder.Decode(forestClass)
	if err != nil {
		return nil, fmt.Errorf("decode forest prediction: %w", err)
	}

	bayesProbs, err := r.Bayes.PredictProba(scaled)
	if err != nil {
		return nil, fmt.Errorf("bayes prediction: %w", err)
	}
	bayesClass := argmax(bayesProbs)
	bayesCrop, err := r.Encoder.Decode(bayesClass)
	if err != nil {
		return nil, fmt.Errorf("decode bayes prediction: %w", err)
	}

	pred := &DualPrediction{
		ForestCrop:        forestCrop,
		ForestProbability: forestProbs[forestClass],
		BayesCrop:         bayesCrop,
		BayesProbability:  bayesProbs[bayesClass],
		ModelsAgree:       forestCrop == bayesCrop,
		Scaled:            scaled,
	}

	switch {
	case pred.ModelsAgree:
		pred.Primary = forestCrop
		pred.PrimaryClass = forestClass
		pred.PrimaryKind = r.Forest.Kind()
		pred.Confidence = pred.ForestProbability
		if pred.BayesProbability > pred.Confidence {
			pred.Confidence = pred.BayesProbability
		}
	case pred.ForestProbability >= pred.BayesProbability:
		pred.Primary = forestCrop
		pred.PrimaryClass = forestClass
		pred.PrimaryKind = r.Forest.Kind()
		pred.Confidence = pred.ForestProbability
	default:
		pred.Primary = bayesCrop
		pred.PrimaryClass = bayesClass
		pred.PrimaryKind = r.Bayes.Kind()
		pred.Confidence = pred.BayesProbability
	}

	return pred, nil
}

// Alternative returns the non-primary crop and its probability, or empty
// when both models agreed.
func (p *DualPrediction) Alternative() (string, float64) {
	if p.ModelsAgree {
		return "", 0
	}
	if p.Primary == p.ForestCrop {
		return p.BayesCrop, p.BayesProbability
	}
	return p.ForestCrop, p.ForestProbability
}
