// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package recommend orchestrates the full advisory pipeline: a validated
// soil reading flows through security pre-checks, the dual-model
// predictor, the confidence audit, explanation and guide generation, and
// finally persistence. The pipeline is a small state machine; explanation
// and guide failures degrade the response but never abort persistence of
// an already-computed recommendation.
package recommend

import "time"

// State names a pipeline stage. Transitions are strictly forward;
// rejected and failed are terminal.
type State string

const (
	StateReceived   State = "received"
	StatePreChecked State = "pre_checked"
	StatePredicted  State = "predicted"
	StateExplained  State = "explained"
	StatePersisted  State = "persisted"
	StateRejected   State = "rejected"
	StateFailed     State = "failed"
)

// Recommendation links one soil reading to its predicted crop. Created
// once per reading, never mutated. Repeated submissions of the same
// six-tuple produce independent records with the same integrity hash.
type Recommendation struct {
	ID        string `json:"id"`
	ReadingID string `json:"reading_id"`
	CropName  string `json:"crop_name"`
	// Confidence is the primary model's top-class probability, 0-1.
	Confidence  float64 `json:"confidence"`
	ModelsAgree bool    `json:"models_agree"`
	// AlternativeCrop is the losing model's pick when the models
	// disagreed; empty on agreement.
	AlternativeCrop       string  `json:"alternative_crop,omitempty"`
	AlternativeConfidence float64 `json:"alternative_confidence,omitempty"`
	Explanation           string  `json:"explanation"`
	// ExplanationFallback marks explanations rendered from the raw-value
	// template after an attribution failure.
	ExplanationFallback bool      `json:"explanation_fallback"`
	CreatedAt           time.Time `json:"created_at"`
}
