// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage.
// Suitable for development and testing. Data is lost on restart.
type MemoryStore struct {
	entries []Entry
	mu      sync.RWMutex
	maxLen  int
}

// NewMemoryStore creates a new in-memory audit store.
func NewMemoryStore(maxLen int) *MemoryStore {
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &MemoryStore{
		entries: make([]Entry, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Save persists an audit entry.
func (s *MemoryStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Enforce max length by removing oldest entries.
	if len(s.entries) >= s.maxLen {
		removeCount := s.maxLen / 10
		if removeCount == 0 {
			removeCount = 1
		}
		s.entries = s.entries[removeCount:]
	}

	s.entries = append(s.entries, *entry)
	return nil
}

// Get retrieves an entry by ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.entries {
		if s.entries[i].ID == id {
			entry := s.entries[i]
			return &entry, nil
		}
	}

	return nil, fmt.Errorf("audit entry not found: %s", id)
}

// SetReading backfills the reading reference on an existing entry.
func (s *MemoryStore) SetReading(ctx context.Context, entryID, readingID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		if s.entries[i].ID == entryID {
			rid := readingID
			s.entries[i].ReadingID = &rid
			return nil
		}
	}

	return fmt.Errorf("audit entry not found: %s", entryID)
}

// Query retrieves entries matching the filter, most recent first.
func (s *MemoryStore) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []Entry
	skipped := 0

	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]

		if !s.matchesFilter(&entry, &filter) {
			continue
		}
		if skipped < filter.Offset {
			skipped++
			continue
		}

		results = append(results, entry)

		if filter.Limit > 0 && len(results) >= filter.Limit {
			break
		}
	}

	return results, nil
}

// matchesFilter returns true if the entry matches all filter criteria.
func (s *MemoryStore) matchesFilter(entry *Entry, filter *QueryFilter) bool {
	if len(filter.CheckTypes) > 0 {
		found := false
		for _, ct := range filter.CheckTypes {
			if entry.CheckType == ct {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if entry.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if filter.ReadingID != "" {
		if entry.ReadingID == nil || *entry.ReadingID != filter.ReadingID {
			return false
		}
	}
	if filter.OwnerID != "" && entry.OwnerID != filter.OwnerID {
		return false
	}
	if filter.RequestID != "" && entry.RequestID != filter.RequestID {
		return false
	}
	if filter.AnomalyOnly && !entry.AnomalyDetected {
		return false
	}

	if filter.StartTime != nil && entry.CreatedAt.Before(*filter.StartTime) {
		return false
	}
	if filter.EndTime != nil && entry.CreatedAt.After(*filter.EndTime) {
		return false
	}

	return true
}

// Count returns the number of entries matching the filter.
func (s *MemoryStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for i := range s.entries {
		if s.matchesFilter(&s.entries[i], &filter) {
			count++
		}
	}

	return count, nil
}

// Delete removes entries older than the given time.
func (s *MemoryStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []Entry
	var deleted int64

	for idx := range s.entries {
		if s.entries[idx].CreatedAt.Before(olderThan) {
			deleted++
		} else {
			kept = append(kept, s.entries[idx])
		}
	}

	s.entries = kept
	return deleted, nil
}

// Clear removes all entries (for testing).
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = s.entries[:0]
}

// Len returns the number of entries in the store.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// GetStats returns statistics for the memory store.
func (s *MemoryStore) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalEntries:    int64(len(s.entries)),
		EntriesByStatus: make(map[string]int64),
		EntriesByCheck:  make(map[string]int64),
	}

	for idx := range s.entries {
		entry := &s.entries[idx]
		stats.EntriesByStatus[string(entry.Status)]++
		stats.EntriesByCheck[string(entry.CheckType)]++
		if entry.AnomalyDetected {
			stats.AnomaliesFlagged++
		}

		if stats.OldestEntry == nil || entry.CreatedAt.Before(*stats.OldestEntry) {
			t := entry.CreatedAt
			stats.OldestEntry = &t
		}
		if stats.NewestEntry == nil || entry.CreatedAt.After(*stats.NewestEntry) {
			t := entry.CreatedAt
			stats.NewestEntry = &t
		}
	}

	return stats, nil
}
