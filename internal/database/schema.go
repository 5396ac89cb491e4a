// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package database

import (
	"context"
	"fmt"
	"strings"
)

// createTables creates all tables owned by this package. The audit
// store creates audit_entries itself over the shared connection.
func (db *DB) createTables(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS soil_readings (
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			nitrogen DOUBLE NOT NULL,
			phosphorus DOUBLE NOT NULL,
			potassium DOUBLE NOT NULL,
			ph DOUBLE NOT NULL,
			moisture DOUBLE NOT NULL,
			temperature DOUBLE NOT NULL,
			integrity_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS recommendations (
			id TEXT PRIMARY KEY,
			reading_id TEXT NOT NULL,
			crop_name TEXT NOT NULL,
			confidence DOUBLE NOT NULL,
			models_agree BOOLEAN NOT NULL,
			alternative_crop TEXT,
			alternative_confidence DOUBLE,
			explanation TEXT NOT NULL,
			explanation_fallback BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS contact_messages (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			subject TEXT NOT NULL,
			message TEXT NOT NULL,
			category TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS feedback_entries (
			id TEXT PRIMARY KEY,
			owner_id TEXT,
			rating INTEGER NOT NULL,
			comments TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			latitude DOUBLE NOT NULL,
			longitude DOUBLE NOT NULL,
			active BOOLEAN NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ
		);
	`
	return db.execStatements(ctx, schema)
}

// createIndexes creates secondary indexes for the common access paths:
// newest-first listings and lookups by reading.
func (db *DB) createIndexes(ctx context.Context) error {
	indexes := `
		CREATE INDEX IF NOT EXISTS idx_readings_created_at ON soil_readings(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_readings_owner ON soil_readings(owner_id);
		CREATE INDEX IF NOT EXISTS idx_readings_hash ON soil_readings(integrity_hash);
		CREATE INDEX IF NOT EXISTS idx_recommendations_created_at ON recommendations(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_recommendations_reading ON recommendations(reading_id);
		CREATE INDEX IF NOT EXISTS idx_contact_created_at ON contact_messages(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_contact_status ON contact_messages(status);
		CREATE INDEX IF NOT EXISTS idx_feedback_created_at ON feedback_entries(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_notifications_created_at ON notifications(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_notifications_active ON notifications(active);
	`
	return db.execStatements(ctx, indexes)
}

// execStatements executes a semicolon-separated batch of DDL statements.
func (db *DB) execStatements(ctx context.Context, batch string) error {
	for _, stmt := range strings.Split(batch, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
