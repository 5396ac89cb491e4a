// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package market

import "strings"

var (
	marketShops = map[string]bool{
		"supermarket": true, "convenience": true, "greengrocer": true,
		"farm": true, "butcher": true, "seafood": true,
	}
	marketAmenities = map[string]bool{
		"marketplace": true, "fast_food": true, "cafe": true,
	}
	agriShops = map[string]bool{
		"garden_centre": true, "agrarian": true, "hardware": true,
		"doityourself": true, "trade": true,
	}
	buyerBuildings = map[string]bool{
		"warehouse": true, "industrial": true,
	}

	marketNameHints = []string{"pasar", "market", "mart", "kedai", "store", "shop"}
	agriNameHints   = []string{"tani", "agro", "pertanian", "baja", "benih", "garden"}
	buyerNameHints  = []string{"borong", "wholesale", "warehouse"}
)

// classifyTags maps OpenStreetMap tags onto a place type. Tag matches
// win over name-pattern matches; unclassifiable places default to
// market.
func classifyTags(tags map[string]string) PlaceType {
	if marketShops[tags["shop"]] || marketAmenities[tags["amenity"]] {
		return TypeMarket
	}
	if agriShops[tags["shop"]] {
		return TypeAgriStore
	}
	if tags["shop"] == "wholesale" || buyerBuildings[tags["building"]] {
		return TypeBuyer
	}

	name := strings.ToLower(tags["name"])
	if containsAny(name, marketNameHints) {
		return TypeMarket
	}
	if containsAny(name, agriNameHints) {
		return TypeAgriStore
	}
	if containsAny(name, buyerNameHints) {
		return TypeBuyer
	}
	return TypeMarket
}

func containsAny(s string, hints []string) bool {
	for _, hint := range hints {
		if strings.Contains(s, hint) {
			return true
		}
	}
	return false
}

// placeName picks the display name, preferring the untagged name over
// language-specific variants. Empty means the place has no usable name.
func placeName(tags map[string]string) string {
	for _, key := range []string{"name", "name:en", "name:ms"} {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return ""
}

// placeAddress assembles a display address from addr:* tags, falling
// back to addr:full.
func placeAddress(tags map[string]string) string {
	var parts []string
	if street := tags["addr:street"]; street != "" {
		if num := tags["addr:housenumber"]; num != "" {
			parts = append(parts, num+" "+street)
		} else {
			parts = append(parts, street)
		}
	}
	if city := tags["addr:city"]; city != "" {
		parts = append(parts, city)
	}
	if postcode := tags["addr:postcode"]; postcode != "" {
		parts = append(parts, postcode)
	}
	if len(parts) == 0 {
		return tags["addr:full"]
	}
	return strings.Join(parts, ", ")
}

// firstTag returns the first non-empty value among the given tag keys.
func firstTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return ""
}
