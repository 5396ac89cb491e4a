// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package soil defines the soil reading domain model, the physical
// plausibility validator and the integrity hasher. These are the first
// stages of the recommendation pipeline: everything downstream operates
// on a validated, fingerprinted reading.
package soil

import "time"

// FeatureCount is the fixed width of the soil feature vector.
const FeatureCount = 6

// FeatureNames lists the features in canonical order. This order is shared
// by the hasher, the scaler and the trained models; changing it invalidates
// every persisted artifact.
var FeatureNames = [FeatureCount]string{"N", "P", "K", "ph", "moisture", "temperature"}

// Reading is an immutable soil sensor reading. Once persisted it is never
// updated.
type Reading struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Nitrogen      float64   `json:"nitrogen"`
	Phosphorus    float64   `json:"phosphorus"`
	Potassium     float64   `json:"potassium"`
	PH            float64   `json:"ph"`
	Moisture      float64   `json:"moisture"`
	Temperature   float64   `json:"temperature"`
	IntegrityHash string    `json:"integrity_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Features returns the reading's values in canonical feature order.
func (r *Reading) Features() [FeatureCount]float64 {
	return [FeatureCount]float64{
		r.Nitrogen, r.Phosphorus, r.Potassium, r.PH, r.Moisture, r.Temperature,
	}
}

// Input is the raw six-field record accepted at the pipeline boundary.
// Struct validation rejects malformed payloads; the range validator owns
// the physical plausibility semantics and the audit trail.
type Input struct {
	Nitrogen    float64 `json:"nitrogen"`
	Phosphorus  float64 `json:"phosphorus"`
	Potassium   float64 `json:"potassium"`
	PH          float64 `json:"ph"`
	Moisture    float64 `json:"moisture"`
	Temperature float64 `json:"temperature"`
}

// Features returns the input values in canonical feature order.
func (in *Input) Features() [FeatureCount]float64 {
	return [FeatureCount]float64{
		in.Nitrogen, in.Phosphorus, in.Potassium, in.PH, in.Moisture, in.Temperature,
	}
}
