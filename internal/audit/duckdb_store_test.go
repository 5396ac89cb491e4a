// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

//go:build integration

package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open in-memory DuckDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func setupDuckDBStore(t *testing.T) *DuckDBStore {
	t.Helper()

	store := NewDuckDBStore(setupTestDB(t))
	if err := store.CreateTable(context.Background()); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}
	return store
}

func TestDuckDBStoreCreateTable(t *testing.T) {
	db := setupTestDB(t)
	store := NewDuckDBStore(db)
	ctx := context.Background()

	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("CreateTable failed: %v", err)
	}

	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT table_name FROM information_schema.tables WHERE table_name = 'audit_entries'").Scan(&tableName)
	if err != nil {
		t.Fatalf("Table audit_entries does not exist: %v", err)
	}

	// Idempotent on re-run.
	if err := store.CreateTable(ctx); err != nil {
		t.Fatalf("second CreateTable failed: %v", err)
	}
}

func TestDuckDBStoreSaveAndGet(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	entry := &Entry{
		ID:              "entry-1",
		CheckType:       CheckTypePre,
		AnomalyDetected: true,
		Status:          StatusAnomaly,
		Details:         "statistically unusual input",
		OwnerID:         "farmer-1",
		RequestID:       "req-1",
		CreatedAt:       time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "entry-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.Status != StatusAnomaly || got.CheckType != CheckTypePre {
		t.Errorf("Get() = %+v, want saved entry", got)
	}
	if !got.AnomalyDetected {
		t.Error("AnomalyDetected = false, want true")
	}
	if got.ReadingID != nil {
		t.Errorf("ReadingID = %v, want nil before backfill", got.ReadingID)
	}
	if got.OwnerID != "farmer-1" || got.RequestID != "req-1" {
		t.Errorf("owner/request = %q/%q, want farmer-1/req-1", got.OwnerID, got.RequestID)
	}
}

func TestDuckDBStoreSetReading(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	entry := &Entry{
		ID:        "entry-1",
		CheckType: CheckTypePre,
		Status:    StatusOK,
		Details:   "pre-checks passed",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Save(ctx, entry); err != nil {
		t.Fatal(err)
	}

	if err := store.SetReading(ctx, "entry-1", "reading-1"); err != nil {
		t.Fatalf("SetReading failed: %v", err)
	}

	got, err := store.Get(ctx, "entry-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ReadingID == nil || *got.ReadingID != "reading-1" {
		t.Errorf("ReadingID = %v, want reading-1", got.ReadingID)
	}

	if err := store.SetReading(ctx, "missing", "reading-1"); err == nil {
		t.Error("SetReading(missing) error = nil, want not found")
	}
}

func TestDuckDBStoreQueryAndCount(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	entries := []*Entry{
		{ID: "e1", CheckType: CheckTypePre, Status: StatusOK, Details: "ok", CreatedAt: base},
		{ID: "e2", CheckType: CheckTypePre, Status: StatusOutOfRange, AnomalyDetected: true, Details: "range", CreatedAt: base.Add(time.Second)},
		{ID: "e3", CheckType: CheckTypePost, Status: StatusLowConfidence, AnomalyDetected: true, Details: "low", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, e := range entries {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.Query(ctx, QueryFilter{AnomalyOnly: true})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Query(anomaly) returned %d entries, want 2", len(got))
	}
	if got[0].ID != "e3" || got[1].ID != "e2" {
		t.Errorf("Query order = [%s %s], want recent first [e3 e2]", got[0].ID, got[1].ID)
	}

	count, err := store.Count(ctx, QueryFilter{CheckTypes: []CheckType{CheckTypePre}})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Count(pre) = %d, want 2", count)
	}
}

func TestDuckDBStoreDelete(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, id := range []string{"old1", "old2", "recent"} {
		e := &Entry{
			ID:        id,
			CheckType: CheckTypePre,
			Status:    StatusOK,
			Details:   "ok",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.Delete(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}

	if _, err := store.Get(ctx, "recent"); err != nil {
		t.Errorf("recent entry removed: %v", err)
	}
}

func TestDuckDBStoreStats(t *testing.T) {
	store := setupDuckDBStore(t)
	ctx := context.Background()

	entries := []*Entry{
		{ID: "e1", CheckType: CheckTypePre, Status: StatusOK, Details: "ok", CreatedAt: time.Now().UTC()},
		{ID: "e2", CheckType: CheckTypePost, Status: StatusTampered, AnomalyDetected: true, Details: "empty label", CreatedAt: time.Now().UTC()},
	}
	for _, e := range entries {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalEntries != 2 {
		t.Errorf("TotalEntries = %d, want 2", stats.TotalEntries)
	}
	if stats.EntriesByStatus[string(StatusTampered)] != 1 {
		t.Errorf("EntriesByStatus[TAMPERED] = %d, want 1", stats.EntriesByStatus[string(StatusTampered)])
	}
	if stats.AnomaliesFlagged != 1 {
		t.Errorf("AnomaliesFlagged = %d, want 1", stats.AnomaliesFlagged)
	}
}
