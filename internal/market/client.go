// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/securecrop/securecrop/internal/breaker"
	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
)

const (
	breakerName = "market-api"

	// maxResponseSize bounds Overpass response bodies; dense urban
	// areas can return a few MB of elements.
	maxResponseSize = 8 << 20

	userAgent = "SecureCrop/1.0"
)

// ErrAllEndpointsFailed is returned when every configured Overpass
// endpoint was tried without success.
var ErrAllEndpointsFailed = errors.New("all overpass endpoints failed")

// Client queries the Overpass API for nearby agricultural places.
// Endpoints are tried in order until one answers; results are cached
// in badger keyed by rounded coordinate and radius.
type Client struct {
	cfg     config.MarketConfig
	httpC   *http.Client
	breaker *breaker.Breaker
	limiter *rate.Limiter
	cache   *resultCache
}

// NewClient creates a market search client. cacheDB may be nil to
// disable caching.
func NewClient(cfg config.MarketConfig, cacheDB *badger.DB) *Client {
	return &Client{
		cfg:     cfg,
		httpC:   &http.Client{Timeout: cfg.Timeout},
		breaker: breaker.New(breakerName),
		limiter: rate.NewLimiter(rate.Limit(1), 3),
		cache:   newResultCache(cacheDB),
	}
}

// Search returns all places around a coordinate sorted by distance.
// radiusMeters of zero or less uses the configured default; values
// above the configured maximum are clamped.
func (c *Client) Search(ctx context.Context, lat, lon float64, radiusMeters int) ([]Place, error) {
	radiusMeters = c.clampRadius(radiusMeters)

	key := searchKey(lat, lon, radiusMeters)
	if places, ok := c.cache.get(key); ok {
		// Distances are recomputed from the exact query coordinate,
		// not the rounded cache key.
		rescore(places, lat, lon)
		return places, nil
	}

	places, err := c.fetch(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}
	rescore(places, lat, lon)

	if err := c.cache.set(key, places, c.cfg.CacheTTL); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to cache market results")
	}
	return places, nil
}

// SearchByType returns only places of one type.
func (c *Client) SearchByType(ctx context.Context, lat, lon float64, radiusMeters int, placeType PlaceType) ([]Place, error) {
	all, err := c.Search(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}
	filtered := make([]Place, 0, len(all))
	for _, p := range all {
		if p.Type == placeType {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (c *Client) clampRadius(radiusMeters int) int {
	if radiusMeters <= 0 {
		radiusMeters = c.cfg.DefaultRadius
	}
	if c.cfg.MaxRadius > 0 && radiusMeters > c.cfg.MaxRadius {
		radiusMeters = c.cfg.MaxRadius
	}
	return radiusMeters
}

// overpassTimeout scales the server-side query timeout with the search
// radius; wide areas take longer to evaluate.
func overpassTimeout(radiusMeters int) int {
	timeout := 15 + (radiusMeters/10000)*5
	if timeout < 20 {
		timeout = 20
	}
	return timeout
}

// overpassQuery builds the Overpass QL query covering shops,
// marketplaces and their way variants around the coordinate.
func overpassQuery(lat, lon float64, radiusMeters, timeoutSec int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)",
		radiusMeters,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64))

	const shopFilter = `["shop"~"supermarket|convenience|greengrocer|farm|garden_centre|hardware|wholesale"]`
	const amenityFilter = `["amenity"="marketplace"]`

	return fmt.Sprintf(`[out:json][timeout:%d];
(
    node%s%s;
    node%s%s;
    way%s%s;
    way%s%s;
);
out center tags;`,
		timeoutSec,
		shopFilter, around,
		amenityFilter, around,
		shopFilter, around,
		amenityFilter, around)
}

// fetch tries each configured endpoint in order. Rate-limited statuses
// and timeouts fall through to the next endpoint.
func (c *Client) fetch(ctx context.Context, lat, lon float64, radiusMeters int) ([]Place, error) {
	if len(c.cfg.Endpoints) == 0 {
		return nil, ErrAllEndpointsFailed
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	timeoutSec := overpassTimeout(radiusMeters)
	query := overpassQuery(lat, lon, radiusMeters, timeoutSec)
	log := logging.Ctx(ctx)

	var lastErr error
	for _, endpoint := range c.cfg.Endpoints {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		body, err := c.fetchFrom(ctx, endpoint, query, timeoutSec)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("overpass endpoint failed, trying next")
			continue
		}

		places, err := parseElements(body, lat, lon)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("endpoint", endpoint).Msg("overpass response unparseable, trying next")
			continue
		}
		return places, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrAllEndpointsFailed, lastErr)
}

func (c *Client) fetchFrom(ctx context.Context, endpoint, query string, timeoutSec int) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSec+5)*time.Second)
	defer cancel()

	params := url.Values{}
	params.Set("data", query)
	reqURL := endpoint + "?" + params.Encode()

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpC.Do(req)
		if err != nil {
			return nil, fmt.Errorf("overpass request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("overpass returned status %d", resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	})
	metrics.RecordExternalRequest("market", time.Since(start), err)
	return body, err
}

// Overpass wire format.
type overpassResponse struct {
	Elements []struct {
		Type   string  `json:"type"`
		ID     int64   `json:"id"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		Center *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"center"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// parseElements converts Overpass elements to places, skipping unnamed
// entries and ways without a resolved center.
func parseElements(body []byte, lat, lon float64) ([]Place, error) {
	var raw overpassResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parse overpass response: %w", err)
	}

	places := make([]Place, 0, len(raw.Elements))
	for _, el := range raw.Elements {
		name := placeName(el.Tags)
		if name == "" {
			continue
		}

		elLat, elLon := el.Lat, el.Lon
		if el.Type != "node" {
			if el.Center == nil {
				continue
			}
			elLat, elLon = el.Center.Lat, el.Center.Lon
		}
		if elLat == 0 && elLon == 0 {
			continue
		}

		places = append(places, Place{
			ID:           fmt.Sprintf("osm_%s_%d", el.Type, el.ID),
			Name:         name,
			Lat:          elLat,
			Lon:          elLon,
			Type:         classifyTags(el.Tags),
			DistanceKm:   roundKm(haversineKm(lat, lon, elLat, elLon)),
			Address:      placeAddress(el.Tags),
			Phone:        firstTag(el.Tags, "phone", "contact:phone"),
			OpeningHours: el.Tags["opening_hours"],
			Website:      firstTag(el.Tags, "website", "contact:website"),
			Source:       "openstreetmap",
		})
	}
	return places, nil
}

// rescore recomputes distances from the query coordinate and re-sorts.
func rescore(places []Place, lat, lon float64) {
	for i := range places {
		places[i].DistanceKm = roundKm(haversineKm(lat, lon, places[i].Lat, places[i].Lon))
	}
	sort.Slice(places, func(i, j int) bool {
		return places[i].DistanceKm < places[j].DistanceKm
	})
}
