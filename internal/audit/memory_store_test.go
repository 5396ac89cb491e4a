// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package audit

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func testEntry(id string, check CheckType, status Status) *Entry {
	return &Entry{
		ID:              id,
		CheckType:       check,
		AnomalyDetected: status != StatusOK,
		Status:          status,
		Details:         "detail for " + id,
		CreatedAt:       time.Now().UTC(),
	}
}

func TestMemoryStoreSaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	entry := testEntry("e1", CheckTypePre, StatusOK)
	if err := store.Save(ctx, entry); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusOK || got.CheckType != CheckTypePre {
		t.Errorf("Get() = %+v, want saved entry", got)
	}

	if _, err := store.Get(ctx, "missing"); err == nil {
		t.Error("Get(missing) error = nil, want not found")
	}

	if err := store.Save(ctx, nil); err == nil {
		t.Error("Save(nil) error = nil, want error")
	}
}

func TestMemoryStoreSetReading(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	entry := testEntry("e1", CheckTypePre, StatusAnomaly)
	if err := store.Save(ctx, entry); err != nil {
		t.Fatal(err)
	}

	if err := store.SetReading(ctx, "e1", "reading-42"); err != nil {
		t.Fatalf("SetReading() error = %v", err)
	}

	got, err := store.Get(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if got.ReadingID == nil || *got.ReadingID != "reading-42" {
		t.Errorf("ReadingID = %v, want reading-42", got.ReadingID)
	}

	if err := store.SetReading(ctx, "missing", "reading-42"); err == nil {
		t.Error("SetReading(missing) error = nil, want not found")
	}
}

func TestMemoryStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	base := time.Now().UTC()
	entries := []*Entry{
		{ID: "e1", CheckType: CheckTypePre, Status: StatusOK, CreatedAt: base},
		{ID: "e2", CheckType: CheckTypePre, Status: StatusOutOfRange, AnomalyDetected: true, CreatedAt: base.Add(time.Second)},
		{ID: "e3", CheckType: CheckTypePost, Status: StatusLowConfidence, AnomalyDetected: true, OwnerID: "farmer1", CreatedAt: base.Add(2 * time.Second)},
		{ID: "e4", CheckType: CheckTypePost, Status: StatusOK, OwnerID: "farmer2", CreatedAt: base.Add(3 * time.Second)},
	}
	for _, e := range entries {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name    string
		filter  QueryFilter
		wantIDs []string
	}{
		{
			name:    "no filter returns recent first",
			filter:  QueryFilter{},
			wantIDs: []string{"e4", "e3", "e2", "e1"},
		},
		{
			name:    "by check type",
			filter:  QueryFilter{CheckTypes: []CheckType{CheckTypePost}},
			wantIDs: []string{"e4", "e3"},
		},
		{
			name:    "by status",
			filter:  QueryFilter{Statuses: []Status{StatusOutOfRange, StatusLowConfidence}},
			wantIDs: []string{"e3", "e2"},
		},
		{
			name:    "anomaly only",
			filter:  QueryFilter{AnomalyOnly: true},
			wantIDs: []string{"e3", "e2"},
		},
		{
			name:    "by owner",
			filter:  QueryFilter{OwnerID: "farmer1"},
			wantIDs: []string{"e3"},
		},
		{
			name:    "limit",
			filter:  QueryFilter{Limit: 2},
			wantIDs: []string{"e4", "e3"},
		},
		{
			name:    "offset skips recent",
			filter:  QueryFilter{Limit: 2, Offset: 1},
			wantIDs: []string{"e3", "e2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("Query() returned %d entries, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("Query()[%d].ID = %s, want %s", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestMemoryStoreQueryByReading(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	entry := testEntry("e1", CheckTypePre, StatusOK)
	if err := store.Save(ctx, entry); err != nil {
		t.Fatal(err)
	}
	if err := store.SetReading(ctx, "e1", "r1"); err != nil {
		t.Fatal(err)
	}

	got, err := store.Query(ctx, QueryFilter{ReadingID: "r1"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("Query(reading r1) = %v, want [e1]", got)
	}

	// Entries with no reading reference never match a reading filter.
	got, err = store.Query(ctx, QueryFilter{ReadingID: "other"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("Query(reading other) returned %d entries, want 0", len(got))
	}
}

func TestMemoryStoreCountAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		e := testEntry(fmt.Sprintf("e%d", i), CheckTypePre, StatusOK)
		e.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	count, err := store.Count(ctx, QueryFilter{})
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 5 {
		t.Errorf("Count() = %d, want 5", count)
	}

	deleted, err := store.Delete(ctx, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("Delete() = %d, want 2", deleted)
	}
	if store.Len() != 3 {
		t.Errorf("Len() after delete = %d, want 3", store.Len())
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)

	for i := 0; i < 12; i++ {
		if err := store.Save(ctx, testEntry(fmt.Sprintf("e%d", i), CheckTypePre, StatusOK)); err != nil {
			t.Fatal(err)
		}
	}

	if store.Len() > 11 {
		t.Errorf("Len() = %d, want bounded by max length", store.Len())
	}
	// Oldest entries are evicted first.
	if _, err := store.Get(ctx, "e0"); err == nil {
		t.Error("Get(e0) succeeded, want evicted")
	}
	if _, err := store.Get(ctx, "e11"); err != nil {
		t.Errorf("Get(e11) error = %v, want newest retained", err)
	}
}

func TestMemoryStoreStats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100)

	saves := []*Entry{
		testEntry("e1", CheckTypePre, StatusOK),
		testEntry("e2", CheckTypePre, StatusAnomaly),
		testEntry("e3", CheckTypePost, StatusLowConfidence),
	}
	for _, e := range saves {
		if err := store.Save(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats() error = %v", err)
	}

	if stats.TotalEntries != 3 {
		t.Errorf("TotalEntries = %d, want 3", stats.TotalEntries)
	}
	if stats.EntriesByStatus[string(StatusAnomaly)] != 1 {
		t.Errorf("EntriesByStatus[ANOMALY] = %d, want 1", stats.EntriesByStatus[string(StatusAnomaly)])
	}
	if stats.EntriesByCheck[string(CheckTypePre)] != 2 {
		t.Errorf("EntriesByCheck[pre_ml] = %d, want 2", stats.EntriesByCheck[string(CheckTypePre)])
	}
	if stats.AnomaliesFlagged != 2 {
		t.Errorf("AnomaliesFlagged = %d, want 2", stats.AnomaliesFlagged)
	}
	if stats.OldestEntry == nil || stats.NewestEntry == nil {
		t.Error("expected time range populated")
	}
}
