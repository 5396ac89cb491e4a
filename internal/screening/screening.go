// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package screening runs the security checks that bracket model
// inference: physical range validation, integrity hashing and anomaly
// detection before the models run, and a confidence audit of the
// produced prediction afterwards. Every check outcome is recorded to
// the audit trail whether or not it blocks the request.
package screening

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/soil"
)

// ErrOutOfRange indicates a feature violated its physical range. The
// wrapped error is the *soil.RangeError carrying the violated field.
var ErrOutOfRange = errors.New("soil reading out of range")

// DefaultConfidenceThreshold is the minimum confidence below which a
// prediction is flagged LOW_CONFIDENCE.
const DefaultConfidenceThreshold = 0.5

// PreResult is the outcome of the pre-ML checks for an accepted input.
type PreResult struct {
	// Entry is the recorded pre-check audit entry. Its reading
	// reference is nil until backfilled after the reading is saved.
	Entry *audit.Entry

	// IntegrityHash is the tamper-evidence fingerprint of the input.
	IntegrityHash string

	// AnomalyDetected is true when the input is statistically unusual.
	// Advisory only; an anomalous in-range input still proceeds.
	AnomalyDetected bool

	// AnomalyScore is the raw isolation score, for operator context.
	AnomalyScore float64
}

// PostResult is the outcome of the post-ML confidence audit.
type PostResult struct {
	// Entry is the recorded post-check audit entry, always linked to
	// the persisted reading.
	Entry *audit.Entry

	// Status is OK, LOW_CONFIDENCE or TAMPERED.
	Status audit.Status

	// Details is the human-readable classification rationale.
	Details string
}

// Screener runs pre- and post-ML checks against a model registry and
// records their outcomes.
type Screener struct {
	registry  *ml.Registry
	recorder  *audit.Recorder
	threshold float64
}

// New creates a screener. A non-positive confidence threshold falls
// back to the default.
func New(registry *ml.Registry, recorder *audit.Recorder, confidenceThreshold float64) *Screener {
	if confidenceThreshold <= 0 {
		confidenceThreshold = DefaultConfidenceThreshold
	}
	return &Screener{
		registry:  registry,
		recorder:  recorder,
		threshold: confidenceThreshold,
	}
}

// PreCheck validates the input ranges, computes the integrity hash and
// screens for statistical anomalies. A range violation records an
// OUT_OF_RANGE entry and returns ErrOutOfRange; the caller must reject
// the request. An anomalous but in-range input is recorded with status
// ANOMALY and allowed through.
func (s *Screener) PreCheck(ctx context.Context, in *soil.Input) (*PreResult, error) {
	if rangeErr := soil.ValidateRanges(in); rangeErr != nil {
		if _, err := s.recorder.PreCheck(ctx, audit.StatusOutOfRange, true, rangeErr.Message); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOutOfRange, rangeErr)
	}

	hash := soil.IntegrityHash(in)

	features := in.Features()
	score := s.registry.Detector.Score(features[:])
	anomalous := s.registry.Detector.IsAnomalous(features[:])

	status := audit.StatusOK
	details := "pre-checks passed"
	if anomalous {
		status = audit.StatusAnomaly
		details = fmt.Sprintf("input is statistically unusual (score %.3f) but within physical ranges", score)
		logging.Ctx(ctx).Warn().
			Float64("score", score).
			Str("hash", hash).
			Msg("anomalous soil reading accepted")
	}

	entry, err := s.recorder.PreCheck(ctx, status, anomalous, details)
	if err != nil {
		return nil, err
	}

	return &PreResult{
		Entry:           entry,
		IntegrityHash:   hash,
		AnomalyDetected: anomalous,
		AnomalyScore:    score,
	}, nil
}

// PostCheck classifies a produced prediction and records the outcome
// linked to the persisted reading. The classification is advisory: it
// never blocks the recommendation, it only flags it.
func (s *Screener) PostCheck(ctx context.Context, readingID, label string, confidence float64) (*PostResult, error) {
	status, details := Classify(label, confidence, s.threshold)

	entry, err := s.recorder.PostCheck(ctx, readingID, status, details)
	if err != nil {
		return nil, err
	}

	if status != audit.StatusOK {
		logging.Ctx(ctx).Warn().
			Str("reading_id", readingID).
			Str("status", string(status)).
			Float64("confidence", confidence).
			Msg("prediction flagged by confidence audit")
	}

	return &PostResult{Entry: entry, Status: status, Details: details}, nil
}

// Classify maps a prediction to its audit status. An empty label is
// TAMPERED regardless of confidence; a confidence below the threshold
// is LOW_CONFIDENCE; anything else is OK.
func Classify(label string, confidence, threshold float64) (audit.Status, string) {
	if strings.TrimSpace(label) == "" {
		return audit.StatusTampered, "prediction label is empty; possible model tampering"
	}
	if confidence < threshold {
		return audit.StatusLowConfidence,
			fmt.Sprintf("prediction %q confidence %.2f below threshold %.2f", label, confidence, threshold)
	}
	return audit.StatusOK,
		fmt.Sprintf("prediction %q accepted with confidence %.2f", label, confidence)
}
