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
	"github.com/securecrop/securecrop/internal/notify"
)

// InsertNotification persists an alert notification record.
func (db *DB) InsertNotification(ctx context.Context, n *notify.Notification) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notifications (
			id, title, message, alert_type, severity,
			latitude, longitude, active, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Title, n.Message, string(n.AlertType), string(n.Severity),
		n.Latitude, n.Longitude, n.Active, n.CreatedAt, n.ExpiresAt,
	)
	metrics.RecordDBQuery("insert", "notifications", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns notifications newest first. With activeOnly
// set, expired and deactivated records are excluded.
func (db *DB) ListNotifications(ctx context.Context, activeOnly bool, limit, offset int) ([]notify.Notification, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT id, title, message, alert_type, severity,
			latitude, longitude, active, created_at, expires_at
		FROM notifications
	`
	var args []interface{}
	if activeOnly {
		query += " WHERE active AND (expires_at IS NULL OR expires_at > ?)"
		args = append(args, time.Now().UTC())
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("list", "notifications", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notify.Notification
	for rows.Next() {
		var n notify.Notification
		var alertType, severity string
		var expires sql.NullTime
		err := rows.Scan(
			&n.ID, &n.Title, &n.Message, &alertType, &severity,
			&n.Latitude, &n.Longitude, &n.Active, &n.CreatedAt, &expires,
		)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan notification row")
			continue
		}
		n.AlertType = notify.AlertType(alertType)
		n.Severity = notify.Severity(severity)
		if expires.Valid {
			t := expires.Time
			n.ExpiresAt = &t
		}
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// DeactivateExpiredNotifications marks notifications past their expiry
// as inactive. Returns the number of records updated.
func (db *DB) DeactivateExpiredNotifications(ctx context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		"UPDATE notifications SET active = false WHERE active AND expires_at IS NOT NULL AND expires_at <= ?",
		time.Now().UTC())
	metrics.RecordDBQuery("update", "notifications", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired notifications: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected count: %w", err)
	}
	if count > 0 {
		logging.Debug().Int64("deactivated", count).Msg("Expired notifications deactivated")
	}
	return count, nil
}
