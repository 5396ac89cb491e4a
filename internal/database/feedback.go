// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
)

// FeedbackEntry is a user rating of the platform, 1 to 5 with an
// optional comment.
type FeedbackEntry struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Rating    int       `json:"rating"`
	Comments  string    `json:"comments,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedbackStats summarizes stored feedback.
type FeedbackStats struct {
	Count         int64           `json:"count"`
	AverageRating float64         `json:"average_rating"`
	ByRating      map[int64]int64 `json:"by_rating"`
}

// InsertFeedback persists a feedback entry. Ratings outside 1-5 are
// rejected.
func (db *DB) InsertFeedback(ctx context.Context, f *FeedbackEntry) error {
	if f.Rating < 1 || f.Rating > 5 {
		return fmt.Errorf("rating %d out of range 1-5", f.Rating)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO feedback_entries (id, owner_id, rating, comments, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		f.ID, nullIfEmpty(f.OwnerID), f.Rating, nullIfEmpty(f.Comments), f.CreatedAt,
	)
	metrics.RecordDBQuery("insert", "feedback_entries", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListFeedback returns feedback entries newest first.
func (db *DB) ListFeedback(ctx context.Context, limit, offset int) ([]FeedbackEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, owner_id, rating, comments, created_at
		FROM feedback_entries
		ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	metrics.RecordDBQuery("list", "feedback_entries", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var f FeedbackEntry
		var ownerID, comments sql.NullString
		if err := rows.Scan(&f.ID, &ownerID, &f.Rating, &comments, &f.CreatedAt); err != nil {
			logging.Warn().Err(err).Msg("Failed to scan feedback row")
			continue
		}
		f.OwnerID = ownerID.String
		f.Comments = comments.String
		entries = append(entries, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feedback: %w", err)
	}
	return entries, nil
}

// GetFeedbackStats returns the entry count, average rating and the
// per-rating histogram.
func (db *DB) GetFeedbackStats(ctx context.Context) (*FeedbackStats, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	stats := &FeedbackStats{ByRating: make(map[int64]int64)}

	var avg sql.NullFloat64
	if err := db.conn.QueryRowContext(ctx,
		"SELECT COUNT(*), AVG(rating) FROM feedback_entries").Scan(&stats.Count, &avg); err != nil {
		return nil, fmt.Errorf("failed to get feedback stats: %w", err)
	}
	stats.AverageRating = avg.Float64

	rows, err := db.conn.QueryContext(ctx,
		"SELECT rating, COUNT(*) FROM feedback_entries GROUP BY rating")
	if err != nil {
		return nil, fmt.Errorf("failed to get rating counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rating, count int64
		if err := rows.Scan(&rating, &count); err == nil {
			stats.ByRating[rating] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rating counts: %w", err)
	}
	return stats, nil
}
