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
)

// Contact message categories.
const (
	ContactCategoryGeneral   = "general"
	ContactCategoryTechnical = "technical"
	ContactCategoryFeedback  = "feedback"
	ContactCategoryBug       = "bug"
	ContactCategoryFeature   = "feature"
	ContactCategoryOther     = "other"
)

// Contact message statuses.
const (
	ContactStatusPending    = "pending"
	ContactStatusInProgress = "in_progress"
	ContactStatusResolved   = "resolved"
	ContactStatusClosed     = "closed"
)

// ContactMessage is a contact form submission. New messages start in
// the pending status.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsertContactMessage persists a contact form submission.
func (db *DB) InsertContactMessage(ctx context.Context, m *ContactMessage) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO contact_messages (
			id, name, email, phone, subject, message,
			category, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, nullIfEmpty(m.Phone), m.Subject, m.Message,
		m.Category, m.Status, m.CreatedAt, m.UpdatedAt,
	)
	metrics.RecordDBQuery("insert", "contact_messages", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert contact message: %w", err)
	}
	return nil
}

// GetContactMessage retrieves a contact message by ID.
func (db *DB) GetContactMessage(ctx context.Context, id string) (*ContactMessage, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	start := time.Now()
	row := db.conn.QueryRowContext(ctx, contactBaseQuery+" WHERE id = ?", id)
	msg, err := scanContactMessage(row)
	metrics.RecordDBQuery("get", "contact_messages", time.Since(start), err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: contact message %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get contact message: %w", err)
	}
	return msg, nil
}

// ListContactMessages returns contact messages newest first, optionally
// filtered by status.
func (db *DB) ListContactMessages(ctx context.Context, status string, limit, offset int) ([]ContactMessage, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := contactBaseQuery
	var args []interface{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.RecordDBQuery("list", "contact_messages", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer rows.Close()

	var msgs []ContactMessage
	for rows.Next() {
		msg, err := scanContactMessage(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan contact message row")
			continue
		}
		msgs = append(msgs, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contact messages: %w", err)
	}
	return msgs, nil
}

// SetContactStatus transitions a contact message and bumps updated_at.
func (db *DB) SetContactStatus(ctx context.Context, id, status string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	start := time.Now()
	result, err := db.conn.ExecContext(ctx,
		"UPDATE contact_messages SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id)
	metrics.RecordDBQuery("update", "contact_messages", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update contact message status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected count: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: contact message %s", ErrNotFound, id)
	}
	return nil
}

const contactBaseQuery = `
	SELECT id, name, email, phone, subject, message,
		category, status, created_at, updated_at
	FROM contact_messages
`

func scanContactMessage(row rowScanner) (*ContactMessage, error) {
	var m ContactMessage
	var phone sql.NullString
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &phone, &m.Subject, &m.Message,
		&m.Category, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Phone = phone.String
	return &m, nil
}
