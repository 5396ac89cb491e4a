// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package audit records the security screening trail of the inference
// pipeline. Every pre-ML and post-ML check outcome is persisted as an
// append-only entry, independently of whether the request succeeded.
package audit

import (
	"context"
	"time"
)

// CheckType identifies which screening stage produced an entry.
type CheckType string

const (
	// CheckTypePre covers range validation and anomaly screening that
	// run before any model is invoked.
	CheckTypePre CheckType = "pre_ml"

	// CheckTypePost covers the confidence audit of a produced prediction.
	CheckTypePost CheckType = "post_ml"
)

// Status classifies a screening outcome.
type Status string

const (
	// StatusOK means the check passed with nothing to report.
	StatusOK Status = "OK"

	// StatusOutOfRange means a feature violated its physical range.
	// The request is rejected.
	StatusOutOfRange Status = "OUT_OF_RANGE"

	// StatusAnomaly means the input is statistically unusual but within
	// range. Advisory only; the request proceeds.
	StatusAnomaly Status = "ANOMALY"

	// StatusTampered means the pipeline produced an empty crop label,
	// treated as a systems-integrity signal.
	StatusTampered Status = "TAMPERED"

	// StatusLowConfidence means the prediction confidence fell below
	// the configured threshold.
	StatusLowConfidence Status = "LOW_CONFIDENCE"
)

// Entry is a single append-only screening record. ReadingID is nil for
// pre-checks executed before the reading is persisted; it is backfilled
// via Store.SetReading once the reading has an identity. No other field
// is ever updated.
type Entry struct {
	// ID is a unique identifier for this entry.
	ID string `json:"id"`

	// CheckType says whether this is a pre-ML or post-ML record.
	CheckType CheckType `json:"check_type"`

	// AnomalyDetected is true when the screening stage flagged the
	// input, including range violations.
	AnomalyDetected bool `json:"anomaly_detected"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Details is a human-readable description of the outcome.
	Details string `json:"details"`

	// ReadingID links to the soil reading this entry concerns, once
	// the reading exists.
	ReadingID *string `json:"reading_id,omitempty"`

	// OwnerID identifies the submitting user, when known.
	OwnerID string `json:"owner_id,omitempty"`

	// RequestID from the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`

	// CreatedAt is when the check ran.
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for audit entry persistence.
type Store interface {
	// Save persists an audit entry.
	Save(ctx context.Context, entry *Entry) error

	// Get retrieves an entry by ID.
	Get(ctx context.Context, id string) (*Entry, error)

	// SetReading backfills the reading reference on an existing entry.
	// The only permitted mutation of a saved entry.
	SetReading(ctx context.Context, entryID, readingID string) error

	// Query retrieves entries matching the filter, most recent first.
	Query(ctx context.Context, filter QueryFilter) ([]Entry, error)

	// Count returns the number of entries matching the filter.
	Count(ctx context.Context, filter QueryFilter) (int64, error)

	// Delete removes entries older than the retention period.
	Delete(ctx context.Context, olderThan time.Time) (int64, error)

	// GetStats summarizes the audit trail.
	GetStats(ctx context.Context) (*Stats, error)
}

// QueryFilter defines filtering options for audit queries.
type QueryFilter struct {
	// CheckTypes filters by screening stage.
	CheckTypes []CheckType `json:"check_types,omitempty"`

	// Statuses filters by outcome classification.
	Statuses []Status `json:"statuses,omitempty"`

	// ReadingID filters by linked soil reading.
	ReadingID string `json:"reading_id,omitempty"`

	// OwnerID filters by submitting user.
	OwnerID string `json:"owner_id,omitempty"`

	// RequestID filters by originating request.
	RequestID string `json:"request_id,omitempty"`

	// AnomalyOnly restricts results to flagged entries.
	AnomalyOnly bool `json:"anomaly_only,omitempty"`

	// StartTime is the beginning of the time range.
	StartTime *time.Time `json:"start_time,omitempty"`

	// EndTime is the end of the time range.
	EndTime *time.Time `json:"end_time,omitempty"`

	// Limit is the maximum number of results.
	Limit int `json:"limit,omitempty"`

	// Offset for pagination.
	Offset int `json:"offset,omitempty"`
}

// DefaultQueryFilter returns a sensible default filter.
func DefaultQueryFilter() QueryFilter {
	return QueryFilter{Limit: 100}
}

// Stats summarizes the audit trail.
type Stats struct {
	TotalEntries     int64            `json:"total_entries"`
	EntriesByStatus  map[string]int64 `json:"entries_by_status"`
	EntriesByCheck   map[string]int64 `json:"entries_by_check"`
	AnomaliesFlagged int64            `json:"anomalies_flagged"`
	OldestEntry      *time.Time       `json:"oldest_entry,omitempty"`
	NewestEntry      *time.Time       `json:"newest_entry,omitempty"`
}
