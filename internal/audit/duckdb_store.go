// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/securecrop/securecrop/internal/logging"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
// This provides a durable audit trail suitable for production use.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDuckDBStore creates a new DuckDB-backed audit store. The caller is
// responsible for ensuring the audit_entries table exists.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

// CreateTable creates the audit_entries table if it doesn't exist.
// This should be called during database initialization.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id TEXT PRIMARY KEY,
			check_type TEXT NOT NULL,
			anomaly_detected BOOLEAN NOT NULL,
			status TEXT NOT NULL,
			details TEXT NOT NULL,
			reading_id TEXT,
			owner_id TEXT,
			request_id TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_entries(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_status ON audit_entries(status);
		CREATE INDEX IF NOT EXISTS idx_audit_check_type ON audit_entries(check_type);
		CREATE INDEX IF NOT EXISTS idx_audit_reading_id ON audit_entries(reading_id);
		CREATE INDEX IF NOT EXISTS idx_audit_owner_id ON audit_entries(owner_id);
		CREATE INDEX IF NOT EXISTS idx_audit_request_id ON audit_entries(request_id);
	`

	statements := strings.Split(query, ";")
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Audit entries table created/verified")
	return nil
}

// Save persists an audit entry to DuckDB.
func (s *DuckDBStore) Save(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	query := `
		INSERT INTO audit_entries (
			id, check_type, anomaly_detected, status, details,
			reading_id, owner_id, request_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		string(entry.CheckType),
		entry.AnomalyDetected,
		string(entry.Status),
		entry.Details,
		entry.ReadingID,
		entry.OwnerID,
		entry.RequestID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit entry: %w", err)
	}

	return nil
}

// Get retrieves an entry by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, s.getBaseQuery(false)+" WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("audit entry not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get audit entry: %w", err)
	}

	return entry, nil
}

// SetReading backfills the reading reference on an existing entry.
func (s *DuckDBStore) SetReading(ctx context.Context, entryID, readingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"UPDATE audit_entries SET reading_id = ? WHERE id = ?", readingID, entryID)
	if err != nil {
		return fmt.Errorf("failed to set reading on audit entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected count: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("audit entry not found: %s", entryID)
	}

	return nil
}

// Query retrieves entries matching the filter.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := s.buildQuery(filter, false)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to scan audit entry row")
			continue
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit entries: %w", err)
	}

	return entries, nil
}

// Count returns the number of entries matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := s.buildQuery(filter, true)

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	return count, nil
}

// Delete removes entries older than the given time.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_entries WHERE created_at < ?", olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit entries: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get deleted count: %w", err)
	}

	if count > 0 {
		logging.Info().Int64("deleted", count).Time("older_than", olderThan).Msg("Deleted old audit entries")
	}

	return count, nil
}

// GetStats returns statistics about the audit store.
func (s *DuckDBStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		EntriesByStatus: make(map[string]int64),
		EntriesByCheck:  make(map[string]int64),
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_entries").Scan(&stats.TotalEntries); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	statusCounts, err := s.countByColumn(ctx, "status")
	if err != nil {
		return nil, err
	}
	stats.EntriesByStatus = statusCounts

	checkCounts, err := s.countByColumn(ctx, "check_type")
	if err != nil {
		return nil, err
	}
	stats.EntriesByCheck = checkCounts

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_entries WHERE anomaly_detected").Scan(&stats.AnomaliesFlagged); err != nil {
		return nil, fmt.Errorf("failed to get anomaly count: %w", err)
	}

	s.setEntryTimeRange(ctx, stats)

	return stats, nil
}

// countByColumn executes a GROUP BY query and returns counts per value.
func (s *DuckDBStore) countByColumn(ctx context.Context, column string) (map[string]int64, error) {
	result := make(map[string]int64)
	query := fmt.Sprintf("SELECT %s, COUNT(*) FROM audit_entries GROUP BY %s", column, column)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s counts: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err == nil {
			result[key] = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return result, nil
}

// setEntryTimeRange populates the oldest and newest entry timestamps.
func (s *DuckDBStore) setEntryTimeRange(ctx context.Context, stats *Stats) {
	var oldest, newest sql.NullTime
	err := s.db.QueryRowContext(ctx,
		"SELECT MIN(created_at), MAX(created_at) FROM audit_entries").Scan(&oldest, &newest)
	if err == nil {
		if oldest.Valid {
			stats.OldestEntry = &oldest.Time
		}
		if newest.Valid {
			stats.NewestEntry = &newest.Time
		}
	}
}

// buildQuery constructs the SQL query based on the filter.
func (s *DuckDBStore) buildQuery(filter QueryFilter, countOnly bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if cond := buildSliceCondition("check_type", filter.CheckTypes, &args); cond != "" {
		conditions = append(conditions, cond)
	}
	if cond := buildSliceCondition("status", filter.Statuses, &args); cond != "" {
		conditions = append(conditions, cond)
	}

	if filter.ReadingID != "" {
		conditions = append(conditions, "reading_id = ?")
		args = append(args, filter.ReadingID)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, filter.RequestID)
	}
	if filter.AnomalyOnly {
		conditions = append(conditions, "anomaly_detected")
	}
	if filter.StartTime != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *filter.StartTime)
	}
	if filter.EndTime != nil {
		conditions = append(conditions, "created_at <= ?")
		args = append(args, *filter.EndTime)
	}

	query := s.getBaseQuery(countOnly)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !countOnly {
		query += " ORDER BY created_at DESC"
		if filter.Limit > 0 {
			query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		}
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	return query, args
}

// buildSliceCondition creates a SQL IN condition for a slice of string values.
func buildSliceCondition[T ~string](column string, values []T, args *[]interface{}) string {
	if len(values) == 0 {
		return ""
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		*args = append(*args, string(v))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ","))
}

// getBaseQuery returns the SELECT statement for audit entries.
func (s *DuckDBStore) getBaseQuery(countOnly bool) string {
	if countOnly {
		return "SELECT COUNT(*) FROM audit_entries"
	}
	return `
		SELECT id, check_type, anomaly_detected, status, details,
			reading_id, owner_id, request_id, created_at
		FROM audit_entries
	`
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry scans a single row into an Entry.
func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var checkType, status string
	var readingID, ownerID, requestID sql.NullString

	err := row.Scan(
		&entry.ID,
		&checkType,
		&entry.AnomalyDetected,
		&status,
		&entry.Details,
		&readingID,
		&ownerID,
		&requestID,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.CheckType = CheckType(checkType)
	entry.Status = Status(status)
	if readingID.Valid {
		rid := readingID.String
		entry.ReadingID = &rid
	}
	entry.OwnerID = ownerID.String
	entry.RequestID = requestID.String

	return &entry, nil
}
