// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package mltest provides hand-built fixture models for pipeline tests.
//
// The fixture registry uses an identity scaler and tiny deterministic
// models, so tests can reason about exact predictions: the canonical
// reading {N:90 P:42 K:43 pH:6.5 moisture:82 temp:20.87} predicts "rice"
// from both classifiers.
package mltest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/soil"
)

// Classes are the fixture crop labels in encoder order.
var Classes = []string{"chickpea", "maize", "rice"}

// CanonicalInput is the reference reading used across pipeline tests.
func CanonicalInput() soil.Input {
	return soil.Input{
		Nitrogen:    90,
		Phosphorus:  42,
		Potassium:   43,
		PH:          6.5,
		Moisture:    82,
		Temperature: 20.87,
	}
}

func identityScaler() *ml.StandardScaler {
	return &ml.StandardScaler{
		Mean: make([]float64, soil.FeatureCount),
		Std:  []float64{1, 1, 1, 1, 1, 1},
	}
}

// fixtureForest routes on nitrogen (feature 0) and moisture (feature 4).
// High nitrogen plus high moisture lands on rice-dominant leaves.
func fixtureForest() *ml.RandomForest {
	return &ml.RandomForest{
		Classes: 3,
		Trees: []ml.DecisionTree{
			{Nodes: []ml.TreeNode{
				{Feature: 0, Threshold: 50, Left: 1, Right: 2, Value: []float64{0.3, 0.4, 0.3}},
				{Feature: -1, Value: []float64{0.6, 0.3, 0.1}},
				{Feature: 4, Threshold: 60, Left: 3, Right: 4, Value: []float64{0.1, 0.45, 0.45}},
				{Feature: -1, Value: []float64{0.1, 0.8, 0.1}},
				{Feature: -1, Value: []float64{0.05, 0.15, 0.8}},
			}},
			{Nodes: []ml.TreeNode{
				{Feature: 4, Threshold: 40, Left: 1, Right: 2, Value: []float64{0.35, 0.35, 0.3}},
				{Feature: -1, Value: []float64{0.5, 0.4, 0.1}},
				{Feature: 0, Threshold: 50, Left: 3, Right: 4, Value: []float64{0.2, 0.2, 0.6}},
				{Feature: -1, Value: []float64{0.3, 0.2, 0.5}},
				{Feature: -1, Value: []float64{0.1, 0.2, 0.7}},
			}},
		},
	}
}

// fixtureBayes centers each class near plausible raw feature values.
func fixtureBayes() *ml.GaussianNB {
	wide := func(vals ...float64) []float64 { return vals }
	variances := []float64{100, 100, 100, 1, 100, 25}
	return &ml.GaussianNB{
		Priors: []float64{1.0 / 3, 1.0 / 3, 1.0 / 3},
		Means: [][]float64{
			wide(30, 60, 75, 7.2, 30, 25), // chickpea
			wide(80, 45, 40, 6.0, 55, 24), // maize
			wide(90, 42, 43, 6.5, 82, 21), // rice
		},
		Variances: [][]float64{variances, variances, variances},
	}
}

// Registry builds the in-memory fixture registry, detector included.
func Registry(t *testing.T) *ml.Registry {
	t.Helper()
	detector := Detector(t)
	return &ml.Registry{
		Forest:   fixtureForest(),
		Bayes:    fixtureBayes(),
		Scaler:   identityScaler(),
		Encoder:  &ml.LabelEncoder{Classes: Classes},
		Detector: detector,
	}
}

// Detector fits a small deterministic isolation forest over the
// validator ranges.
func Detector(t *testing.T) *ml.IsolationForest {
	t.Helper()
	samples := make([][]float64, 200)
	rngState := int64(1)
	next := func() float64 {
		// Tiny LCG keeps the fixture free of seeding concerns.
		rngState = (rngState*6364136223846793005 + 1442695040888963407) & 0x7fffffff
		return float64(rngState) / float64(0x7fffffff)
	}
	for i := range samples {
		row := make([]float64, soil.FeatureCount)
		for f := 0; f < soil.FeatureCount; f++ {
			min, max := soil.Bounds(f)
			row[f] = min + next()*(max-min)
		}
		samples[i] = row
	}
	detector, err := ml.FitIsolationForest(samples, 0.1, 7)
	if err != nil {
		t.Fatalf("fit fixture detector: %v", err)
	}
	return detector
}

// DisagreeRegistry returns a registry whose classifiers always disagree:
// the forest picks chickpea at 0.6 while bayes picks maize near 1.0, so
// the bayes pick wins the tie-break.
func DisagreeRegistry(t *testing.T) *ml.Registry {
	t.Helper()
	reg := Registry(t)
	reg.Forest = &ml.RandomForest{
		Classes: 3,
		Trees: []ml.DecisionTree{
			{Nodes: []ml.TreeNode{
				{Feature: -1, Value: []float64{0.6, 0.4, 0}},
			}},
		},
	}
	reg.Bayes = &ml.GaussianNB{
		Priors: []float64{0.01, 0.98, 0.01},
		Means: [][]float64{
			{0, 0, 0, 0, 0, 0},
			{90, 42, 43, 6.5, 82, 20.9},
			{-50, -50, -50, -50, -50, -50},
		},
		Variances: [][]float64{
			{1, 1, 1, 1, 1, 1},
			{100, 100, 100, 1, 100, 25},
			{1, 1, 1, 1, 1, 1},
		},
	}
	return reg
}

// WriteArtifacts persists the fixture registry to dir using the
// conventional artifact names, for tests exercising LoadRegistry.
func WriteArtifacts(t *testing.T, dir string) {
	t.Helper()
	reg := Registry(t)
	write := func(name string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %s: %v", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write(ml.ForestArtifact, reg.Forest)
	write(ml.BayesArtifact, reg.Bayes)
	write(ml.ScalerArtifact, reg.Scaler)
	write(ml.EncoderArtifact, reg.Encoder)
	write(ml.DetectorArtifact, reg.Detector)
}
