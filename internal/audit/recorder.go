// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/securecrop/securecrop/internal/logging"
)

// Recorder writes screening entries to a Store. Writes are synchronous:
// pre-check entries must exist before the reading reference can be
// backfilled onto them.
type Recorder struct {
	store Store
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// PreCheck records a pre-ML screening outcome. The returned entry has no
// reading reference yet; call AttachReading once the reading is saved.
func (r *Recorder) PreCheck(ctx context.Context, status Status, anomaly bool, details string) (*Entry, error) {
	return r.record(ctx, CheckTypePre, status, anomaly, details, nil)
}

// PostCheck records a post-ML screening outcome linked to a persisted
// reading.
func (r *Recorder) PostCheck(ctx context.Context, readingID string, status Status, details string) (*Entry, error) {
	return r.record(ctx, CheckTypePost, status, status != StatusOK, details, &readingID)
}

// AttachReading backfills the reading reference on a pre-check entry.
func (r *Recorder) AttachReading(ctx context.Context, entry *Entry, readingID string) error {
	if err := r.store.SetReading(ctx, entry.ID, readingID); err != nil {
		return fmt.Errorf("attach reading to audit entry: %w", err)
	}
	rid := readingID
	entry.ReadingID = &rid
	return nil
}

func (r *Recorder) record(ctx context.Context, check CheckType, status Status, anomaly bool, details string, readingID *string) (*Entry, error) {
	entry := &Entry{
		ID:              uuid.NewString(),
		CheckType:       check,
		AnomalyDetected: anomaly,
		Status:          status,
		Details:         details,
		ReadingID:       readingID,
		RequestID:       logging.RequestIDFromContext(ctx),
		CreatedAt:       time.Now().UTC(),
	}

	if err := r.store.Save(ctx, entry); err != nil {
		return nil, fmt.Errorf("save audit entry: %w", err)
	}

	logging.Ctx(ctx).Debug().
		Str("entry_id", entry.ID).
		Str("check_type", string(check)).
		Str("status", string(status)).
		Bool("anomaly", anomaly).
		Msg("audit entry recorded")

	return entry, nil
}
