// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package market finds nearby markets, produce buyers and agricultural
// supply stores from OpenStreetMap via the Overpass API.
package market

// PlaceType classifies a returned place.
type PlaceType string

const (
	TypeMarket    PlaceType = "market"
	TypeBuyer     PlaceType = "buyer"
	TypeAgriStore PlaceType = "agri_store"
)

// Place is one nearby point of interest. DistanceKm is measured from
// the query coordinate, not the cached one.
type Place struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Lat          float64   `json:"lat"`
	Lon          float64   `json:"lon"`
	Type         PlaceType `json:"type"`
	DistanceKm   float64   `json:"distance_km"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone"`
	OpeningHours string    `json:"opening_hours"`
	Website      string    `json:"website"`
	Source       string    `json:"source"`
}
