// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

import (
	"reflect"
	"testing"
)

func TestAssessRiskScoring(t *testing.T) {
	tests := []struct {
		name      string
		cur       Current
		wantScore int
		wantLevel string
	}{
		{
			name:      "benign conditions",
			cur:       Current{Temperature: 25, Humidity: 60, WindSpeed: 18}, // 5 m/s
			wantScore: 0,
			wantLevel: "low",
		},
		{
			name:      "moderate temperature only",
			cur:       Current{Temperature: 33, Humidity: 60, WindSpeed: 18},
			wantScore: 15,
			wantLevel: "low",
		},
		{
			name:      "extreme temperature and humidity",
			cur:       Current{Temperature: 38, Humidity: 95, WindSpeed: 18},
			wantScore: 55,
			wantLevel: "medium",
		},
		{
			name:      "everything extreme",
			cur:       Current{Temperature: 38, Humidity: 95, WindSpeed: 60}, // 16.7 m/s
			wantScore: 80,
			wantLevel: "high",
		},
		{
			name:      "cold and dry",
			cur:       Current{Temperature: 5, Humidity: 25, WindSpeed: 18},
			wantScore: 55,
			wantLevel: "medium",
		},
		{
			name:      "moderate wind",
			cur:       Current{Temperature: 25, Humidity: 60, WindSpeed: 40}, // 11.1 m/s
			wantScore: 10,
			wantLevel: "low",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessRisk(&tt.cur)
			if got.Score != tt.wantScore {
				t.Errorf("score = %d, want %d (factors %v)", got.Score, tt.wantScore, got.Factors)
			}
			if got.Level != tt.wantLevel {
				t.Errorf("level = %s, want %s", got.Level, tt.wantLevel)
			}
		})
	}
}

func TestAssessRiskNil(t *testing.T) {
	got := AssessRisk(nil)
	if got.Level != "unknown" || got.Score != 0 {
		t.Fatalf("got %+v", got)
	}
	if got.Factors == nil || got.Recommendations == nil {
		t.Fatal("factors and recommendations must be non-nil for JSON encoding")
	}
}

func TestAssessRiskRecommendations(t *testing.T) {
	got := AssessRisk(&Current{Temperature: 38, Humidity: 60, WindSpeed: 18})
	want := []string{
		"Consider irrigation during cooler hours",
		"Provide shade for sensitive crops",
	}
	if !reflect.DeepEqual(got.Recommendations, want) {
		t.Errorf("recommendations = %v, want %v", got.Recommendations, want)
	}

	got = AssessRisk(&Current{Temperature: 25, Humidity: 95, WindSpeed: 60})
	want = []string{
		"Monitor for fungal diseases",
		"Ensure proper ventilation",
		"Stake tall plants",
		"Delay spraying operations",
	}
	if !reflect.DeepEqual(got.Recommendations, want) {
		t.Errorf("recommendations = %v, want %v", got.Recommendations, want)
	}
}
