// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"math/rand"
	"testing"
)

// clusteredSamples draws points around the origin with unit spread.
func clusteredSamples(n int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = []float64{rng.NormFloat64(), rng.NormFloat64()}
	}
	return samples
}

func TestFitIsolationForest(t *testing.T) {
	samples := clusteredSamples(300, 3)

	f, err := FitIsolationForest(samples, 0.1, 42)
	if err != nil {
		t.Fatalf("FitIsolationForest() error = %v", err)
	}
	if len(f.Trees) != isoTreeCount {
		t.Errorf("tree count = %d, want %d", len(f.Trees), isoTreeCount)
	}
	if f.SubsampleSize != isoSubsampleLimit {
		t.Errorf("subsample = %d, want %d", f.SubsampleSize, isoSubsampleLimit)
	}
	if f.Threshold <= 0 || f.Threshold >= 1 {
		t.Errorf("threshold = %f, want in (0,1)", f.Threshold)
	}
}

func TestFitIsolationForestRejectsBadInput(t *testing.T) {
	tests := []struct {
		name          string
		samples       [][]float64
		contamination float64
	}{
		{"no samples", nil, 0.1},
		{"zero contamination", clusteredSamples(10, 1), 0},
		{"contamination too high", clusteredSamples(10, 1), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FitIsolationForest(tt.samples, tt.contamination, 1); err == nil {
				t.Error("FitIsolationForest() = nil error, want error")
			}
		})
	}
}

func TestIsolationForestScoresOutliersHigher(t *testing.T) {
	f, err := FitIsolationForest(clusteredSamples(400, 5), 0.1, 42)
	if err != nil {
		t.Fatalf("FitIsolationForest() error = %v", err)
	}

	center := f.Score([]float64{0, 0})
	outlier := f.Score([]float64{25, -25})

	if outlier <= center {
		t.Errorf("outlier score %f not above center score %f", outlier, center)
	}
	if !f.IsAnomalous([]float64{25, -25}) {
		t.Error("far outlier not flagged anomalous")
	}
	if f.IsAnomalous([]float64{0, 0}) {
		t.Error("cluster center flagged anomalous")
	}
}

func TestIsolationForestDeterministicForSeed(t *testing.T) {
	samples := clusteredSamples(200, 9)

	a, err := FitIsolationForest(samples, 0.1, 42)
	if err != nil {
		t.Fatalf("first fit: %v", err)
	}
	b, err := FitIsolationForest(samples, 0.1, 42)
	if err != nil {
		t.Fatalf("second fit: %v", err)
	}

	if a.Threshold != b.Threshold {
		t.Errorf("thresholds differ: %f vs %f", a.Threshold, b.Threshold)
	}
	probe := []float64{1.5, -0.5}
	if a.Score(probe) != b.Score(probe) {
		t.Error("scores differ for identical seeds")
	}
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"median of odd set", []float64{3, 1, 2}, 0.5, 2},
		{"ninetieth percentile", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9},
		{"empty", nil, 0.5, 0},
		{"q of one", []float64{5, 1}, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := quantile(tt.values, tt.q); got != tt.want {
				t.Errorf("quantile(%v, %f) = %f, want %f", tt.values, tt.q, got, tt.want)
			}
		})
	}
}
