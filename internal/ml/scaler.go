// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package ml

import "fmt"

// StandardScaler centers and scales features using the mean and standard
// deviation recorded at training time.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Transform returns the standardized copy of features.
func (s *StandardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.Mean) || len(s.Mean) != len(s.Std) {
		return nil, fmt.Errorf("scaler expects %d features, got %d", len(s.Mean), len(features))
	}
	out := make([]float64, len(features))
	for i, v := range features {
		std := s.Std[i]
		if std == 0 {
			// Constant feature at training time; center only.
			std = 1
		}
		out[i] = (v - s.Mean[i]) / std
	}
	return out, nil
}

// LabelEncoder maps encoded class indices back to crop names.
type LabelEncoder struct {
	Classes []string `json:"classes"`
}

// Decode returns the crop name for an encoded class index.
func (e *LabelEncoder) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(e.Classes) {
		return "", fmt.Errorf("class index %d out of range [0,%d)", idx, len(e.Classes))
	}
	return e.Classes[idx], nil
}

// NumClasses returns the number of known classes.
func (e *LabelEncoder) NumClasses() int {
	return len(e.Classes)
}
