// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
	"github.com/securecrop/securecrop/internal/recommend"
)

// InsertRecommendation persists a recommendation record.
func (db *DB) InsertRecommendation(ctx context.Context, rec *recommend.Recommendation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO recommendations (
			id, reading_id, crop_name, confidence, models_agree,
			alternative_crop, alternative_confidence, explanation,
			explanation_fallback, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ReadingID, rec.CropName, rec.Confidence, rec.ModelsAgree,
		nullIfEmpty(rec.AlternativeCrop), rec.AlternativeConfidence,
		rec.Explanation, rec.ExplanationFallback, rec.CreatedAt,
	)
	metrics.RecordDBQuery("insert", "recommendations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	return nil
}

// GetRecommendation retrieves a recommendation by ID.
func (db *DB) GetRecommendation(ctx context.Context, id string) (*recommend.Recommendation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, recommendationBaseQuery+" WHERE id = ?", id)
	rec, err := scanRecommendation(row)
	metrics.RecordDBQuery("get", "recommendations", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: recommendation %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get recommendation: %w", err)
	}
	return rec, nil
}

// GetRecommendationByReading retrieves the recommendation created for a
// reading, if one exists.
func (db *DB) GetRecommendationByReading(ctx context.Context, readingID string) (*recommend.Recommendation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		recommendationBaseQuery+" WHERE reading_id = ? ORDER BY created_at DESC LIMIT 1", readingID)
	rec, err := scanRecommendation(row)
	metrics.RecordDBQuery("get_by_reading", "recommendations", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: recommendation for reading %s", ErrNotFound, readingID)
		}
		return nil, fmt.Errorf("failed to get recommendation by reading: %w", err)
	}
	return rec, nil
}

// ListRecommendations returns recommendations newest first. A
// non-positive limit defaults to 50.
func (db *DB) ListRecommendations(ctx context.Context, limit, offset int) ([]recommend.Recommendation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		recommendationBaseQuery+" ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	metrics.RecordDBQuery("list", "recommendations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []recommend.Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan recommendation row")
			continue
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}
	return recs, nil
}

const recommendationBaseQuery = `
	SELECT id, reading_id, crop_name, confidence, models_agree,
		alternative_crop, alternative_confidence, explanation,
		explanation_fallback, created_at
	FROM recommendations
`

func scanRecommendation(row rowScanner) (*recommend.Recommendation, error) {
	var rec recommend.Recommendation
	var altCrop sql.NullString
	var altConf sql.NullFloat64
	err := row.Scan(
		&rec.ID, &rec.ReadingID, &rec.CropName, &rec.Confidence, &rec.ModelsAgree,
		&altCrop, &altConf, &rec.Explanation, &rec.ExplanationFallback, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.AlternativeCrop = altCrop.String
	rec.AlternativeConfidence = altConf.Float64
	return &rec, nil
}

// nullIfEmpty maps empty strings to SQL NULL.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
