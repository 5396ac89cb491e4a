// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/soil"
)

// Conventional artifact file names inside the models directory.
const (
	ForestArtifact   = "rf_model.json"
	BayesArtifact    = "nb_model.json"
	ScalerArtifact   = "scaler.json"
	EncoderArtifact  = "label_encoder.json"
	DetectorArtifact = "anomaly_detector.json"
)

// ErrModelUnavailable indicates a required trained artifact could not be
// loaded. Fatal for the requesting pipeline run; operator action required.
var ErrModelUnavailable = errors.New("trained model unavailable")

// DetectorOptions tunes the lazy fit of the anomaly detector when no
// persisted artifact exists.
type DetectorOptions struct {
	Contamination   float64
	TrainingSamples int
	Seed            int64
}

// DefaultDetectorOptions mirrors the screening defaults.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		Contamination:   0.1,
		TrainingSamples: 500,
		Seed:            42,
	}
}

// Registry holds every fitted artifact needed at inference time. It is
// built once at process startup and never mutated afterwards, so no
// locking is required.
type Registry struct {
	Forest   *RandomForest
	Bayes    *GaussianNB
	Scaler   *StandardScaler
	Encoder  *LabelEncoder
	Detector *IsolationForest
}

// LoadRegistry loads all model artifacts from dir. The classifier,
// scaler and encoder artifacts are required; their absence returns
// ErrModelUnavailable. A missing anomaly detector is fitted on synthetic
// in-range samples and persisted back to dir.
func LoadRegistry(dir string, opts DetectorOptions) (*Registry, error) {
	reg := &Registry{}

	if err := loadArtifact(dir, ForestArtifact, &reg.Forest); err != nil {
		return nil, err
	}
	if err := reg.Forest.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, ForestArtifact, err)
	}
	if err := loadArtifact(dir, BayesArtifact, &reg.Bayes); err != nil {
		return nil, err
	}
	if err := reg.Bayes.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelUnavailable, BayesArtifact, err)
	}
	if err := loadArtifact(dir, ScalerArtifact, &reg.Scaler); err != nil {
		return nil, err
	}
	if err := loadArtifact(dir, EncoderArtifact, &reg.Encoder); err != nil {
		return nil, err
	}

	if reg.Forest.NumClasses() != reg.Encoder.NumClasses() ||
		reg.Bayes.NumClasses() != reg.Encoder.NumClasses() {
		return nil, fmt.Errorf("%w: classifier/encoder class counts disagree (%d/%d/%d)",
			ErrModelUnavailable, reg.Forest.NumClasses(), reg.Bayes.NumClasses(),
			reg.Encoder.NumClasses())
	}

	detector, err := loadOrFitDetector(dir, opts)
	if err != nil {
		return nil, err
	}
	reg.Detector = detector

	logging.Info().
		Str("dir", dir).
		Int("classes", reg.Encoder.NumClasses()).
		Int("trees", len(reg.Forest.Trees)).
		Msg("model registry loaded")
	return reg, nil
}

func loadArtifact(dir, name string, out any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrModelUnavailable, name, err)
	}
	return nil
}

// loadOrFitDetector loads the persisted detector, or fits one on samples
// drawn uniformly from the validator ranges and saves it. Fitting is
// deterministic for a given seed, so concurrent first-boot workers
// produce identical artifacts; a race costs a redundant fit, not
// corruption.
func loadOrFitDetector(dir string, opts DetectorOptions) (*IsolationForest, error) {
	path := filepath.Join(dir, DetectorArtifact)

	if data, err := os.ReadFile(path); err == nil {
		detector := &IsolationForest{}
		if err := json.Unmarshal(data, detector); err == nil && len(detector.Trees) > 0 {
			return detector, nil
		}
		logging.Warn().Str("path", path).Msg("anomaly detector artifact unreadable, refitting")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	samples := make([][]float64, opts.TrainingSamples)
	for i := range samples {
		row := make([]float64, soil.FeatureCount)
		for f := 0; f < soil.FeatureCount; f++ {
			min, max := soil.Bounds(f)
			row[f] = min + rng.Float64()*(max-min)
		}
		samples[i] = row
	}

	detector, err := FitIsolationForest(samples, opts.Contamination, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("fit anomaly detector: %w", err)
	}

	if data, err := json.Marshal(detector); err == nil {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("could not persist anomaly detector")
		}
	}

	logging.Info().
		Int("samples", opts.TrainingSamples).
		Float64("contamination", opts.Contamination).
		Msg("anomaly detector fitted")
	return detector, nil
}
