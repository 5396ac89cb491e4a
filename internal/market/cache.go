// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package market

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/metrics"
)

const cacheKeyPrefix = "market_search:"

// resultCache stores search results in badger with a TTL, so repeat
// searches around the same spot skip the Overpass round trip.
type resultCache struct {
	db *badger.DB
}

func newResultCache(db *badger.DB) *resultCache {
	return &resultCache{db: db}
}

// searchKey derives the cache key from the coordinate rounded to two
// decimals (about 1km) plus the radius, so nearby queries share entries.
func searchKey(lat, lon float64, radiusMeters int) string {
	raw := fmt.Sprintf("%s%.2f_%.2f_%d", cacheKeyPrefix, lat, lon, radiusMeters)
	sum := sha256.Sum256([]byte(raw))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *resultCache) get(key string) ([]Place, bool) {
	if c.db == nil {
		return nil, false
	}

	var places []Place
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &places)
		})
	})
	if err != nil {
		metrics.CacheMisses.WithLabelValues("market").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("market").Inc()
	return places, true
}

func (c *resultCache) set(key string, places []Place, ttl time.Duration) error {
	if c.db == nil || len(places) == 0 {
		return nil
	}

	data, err := json.Marshal(places)
	if err != nil {
		return fmt.Errorf("marshal cached places: %w", err)
	}
	return c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), data).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
}
