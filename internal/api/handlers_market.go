// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"errors"
	"net/http"

	"github.com/securecrop/securecrop/internal/market"
)

// handleMarketSearch serves nearby places. An optional type parameter
// (market, buyer, agri_store) filters the result.
func (rt *Router) handleMarketSearch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lat, lon, err := coordinates(r, rt.cfg.Weather.DefaultLat, rt.cfg.Weather.DefaultLon)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	radius, err := queryInt(r, "radius", 0)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if radius < 0 {
		rw.BadRequest("radius must not be negative")
		return
	}

	placeType := market.PlaceType(r.URL.Query().Get("type"))
	switch placeType {
	case "", market.TypeMarket, market.TypeBuyer, market.TypeAgriStore:
	default:
		rw.BadRequest("type must be one of market, buyer, agri_store")
		return
	}

	places, err := rt.market.Search(r.Context(), lat, lon, radius)
	if err != nil {
		if errors.Is(err, market.ErrAllEndpointsFailed) {
			rw.ExternalServiceError("market", err)
			return
		}
		rw.InternalError("Market search failed")
		return
	}

	if placeType != "" {
		filtered := make([]market.Place, 0, len(places))
		for _, p := range places {
			if p.Type == placeType {
				filtered = append(filtered, p)
			}
		}
		places = filtered
	}

	rw.Success(places)
}
