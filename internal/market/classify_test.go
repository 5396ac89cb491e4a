// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package market

import "testing"

func TestClassifyTags(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want PlaceType
	}{
		{"supermarket", map[string]string{"shop": "supermarket"}, TypeMarket},
		{"greengrocer", map[string]string{"shop": "greengrocer"}, TypeMarket},
		{"marketplace amenity", map[string]string{"amenity": "marketplace"}, TypeMarket},
		{"garden centre", map[string]string{"shop": "garden_centre"}, TypeAgriStore},
		{"hardware", map[string]string{"shop": "hardware"}, TypeAgriStore},
		{"wholesale shop", map[string]string{"shop": "wholesale"}, TypeBuyer},
		{"warehouse building", map[string]string{"building": "warehouse"}, TypeBuyer},
		{"name hints market", map[string]string{"name": "Pasar Besar"}, TypeMarket},
		{"name hints agri", map[string]string{"name": "Kiosk Agro Tani"}, TypeAgriStore},
		{"name hints buyer", map[string]string{"name": "Pusat Borong Sayur"}, TypeBuyer},
		{"tag beats name", map[string]string{"shop": "supermarket", "name": "Wholesale Depot"}, TypeMarket},
		{"unclassified defaults to market", map[string]string{"name": "Kak Limah"}, TypeMarket},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTags(tt.tags); got != tt.want {
				t.Errorf("classifyTags(%v) = %s, want %s", tt.tags, got, tt.want)
			}
		})
	}
}

func TestPlaceName(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{"plain name wins", map[string]string{"name": "Pasar Tani", "name:en": "Farmers Market"}, "Pasar Tani"},
		{"english fallback", map[string]string{"name:en": "Farmers Market"}, "Farmers Market"},
		{"malay fallback", map[string]string{"name:ms": "Pasar Malam"}, "Pasar Malam"},
		{"unnamed", map[string]string{"shop": "supermarket"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placeName(tt.tags); got != tt.want {
				t.Errorf("placeName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaceAddress(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want string
	}{
		{
			"full address",
			map[string]string{"addr:housenumber": "12", "addr:street": "Jalan Besar", "addr:city": "Ipoh", "addr:postcode": "30000"},
			"12 Jalan Besar, Ipoh, 30000",
		},
		{
			"street without number",
			map[string]string{"addr:street": "Jalan Besar", "addr:city": "Ipoh"},
			"Jalan Besar, Ipoh",
		},
		{
			"addr full fallback",
			map[string]string{"addr:full": "Lot 3, Kampung Baru"},
			"Lot 3, Kampung Baru",
		},
		{"no address", map[string]string{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := placeAddress(tt.tags); got != tt.want {
				t.Errorf("placeAddress = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHaversineKm(t *testing.T) {
	// Kuala Lumpur to Ipoh is roughly 165km as the crow flies.
	got := haversineKm(3.1390, 101.6869, 4.5975, 101.0901)
	if got < 160 || got > 180 {
		t.Errorf("haversineKm = %v, want ~165", got)
	}

	if d := haversineKm(3.14, 101.68, 3.14, 101.68); d != 0 {
		t.Errorf("zero distance = %v", d)
	}
}
