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
	"github.com/securecrop/securecrop/internal/soil"
)

// InsertReading persists a soil reading. Readings are immutable; there
// is no corresponding update.
func (db *DB) InsertReading(ctx context.Context, r *soil.Reading) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO soil_readings (
			id, owner_id, nitrogen, phosphorus, potassium,
			ph, moisture, temperature, integrity_hash, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Nitrogen, r.Phosphorus, r.Potassium,
		r.PH, r.Moisture, r.Temperature, r.IntegrityHash, r.CreatedAt,
	)
	metrics.RecordDBQuery("insert", "soil_readings", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert soil reading: %w", err)
	}
	return nil
}

// GetReading retrieves a reading by ID.
func (db *DB) GetReading(ctx context.Context, id string) (*soil.Reading, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, readingBaseQuery+" WHERE id = ?", id)
	reading, err := scanReading(row)
	metrics.RecordDBQuery("get", "soil_readings", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: soil reading %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get soil reading: %w", err)
	}
	return reading, nil
}

// ListReadings returns readings newest first. A non-positive limit
// defaults to 50.
func (db *DB) ListReadings(ctx context.Context, limit, offset int) ([]soil.Reading, error) {
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
		readingBaseQuery+" ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	metrics.RecordDBQuery("list", "soil_readings", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list soil readings: %w", err)
	}
	defer rows.Close()

	var readings []soil.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan soil reading row")
			continue
		}
		readings = append(readings, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating soil readings: %w", err)
	}
	return readings, nil
}

// CountReadings returns the total number of stored readings.
func (db *DB) CountReadings(ctx context.Context) (int64, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var count int64
	start := time.Now()
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM soil_readings").Scan(&count)
	metrics.RecordDBQuery("count", "soil_readings", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count soil readings: %w", err)
	}
	return count, nil
}

const readingBaseQuery = `
	SELECT id, owner_id, nitrogen, phosphorus, potassium,
		ph, moisture, temperature, integrity_hash, created_at
	FROM soil_readings
`

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReading(row rowScanner) (*soil.Reading, error) {
	var r soil.Reading
	var ownerID sql.NullString
	err := row.Scan(
		&r.ID, &ownerID, &r.Nitrogen, &r.Phosphorus, &r.Potassium,
		&r.PH, &r.Moisture, &r.Temperature, &r.IntegrityHash, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.OwnerID = ownerID.String
	return &r, nil
}
