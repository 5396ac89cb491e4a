// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

import (
	"strings"
	"testing"

	"github.com/securecrop/securecrop/internal/notify"
)

func TestEvaluateAlertsTemperature(t *testing.T) {
	tests := []struct {
		name         string
		temp         float64
		wantType     notify.AlertType
		wantSeverity notify.Severity
		wantTitle    string
	}{
		{"heat danger", 38.0, notify.AlertHeatWave, notify.SeverityDanger, "Heat Warning"},
		{"heat danger boundary", 35.0, notify.AlertHeatWave, notify.SeverityDanger, "Heat Warning"},
		{"heat warning", 33.0, notify.AlertHeatWave, notify.SeverityWarning, "High Temperature Alert"},
		{"frost danger", 2.0, notify.AlertColdWave, notify.SeverityDanger, "Frost Warning"},
		{"frost boundary", 5.0, notify.AlertColdWave, notify.SeverityDanger, "Frost Warning"},
		{"cold warning", 8.0, notify.AlertColdWave, notify.SeverityWarning, "Cold Alert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := &Current{Temperature: tt.temp, Humidity: 50, WindSpeed: 10}
			alerts := EvaluateAlerts(cur)
			if len(alerts) != 1 {
				t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
			}
			a := alerts[0]
			if a.Type != tt.wantType || a.Severity != tt.wantSeverity || a.Title != tt.wantTitle {
				t.Errorf("alert = %+v, want type=%s severity=%s title=%q", a, tt.wantType, tt.wantSeverity, tt.wantTitle)
			}
		})
	}
}

func TestEvaluateAlertsTemperatureExclusive(t *testing.T) {
	// 34°C triggers the warning, never both heat alerts.
	cur := &Current{Temperature: 34, Humidity: 50, WindSpeed: 10}
	alerts := EvaluateAlerts(cur)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	if alerts[0].Severity != notify.SeverityWarning {
		t.Errorf("severity = %s, want warning", alerts[0].Severity)
	}
}

func TestEvaluateAlertsHumidity(t *testing.T) {
	tests := []struct {
		name     string
		humidity int
		wantType notify.AlertType
	}{
		{"high humidity", 95, notify.AlertHumidity},
		{"high humidity boundary", 90, notify.AlertHumidity},
		{"low humidity", 20, notify.AlertDrought},
		{"low humidity boundary", 30, notify.AlertDrought},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := &Current{Temperature: 25, Humidity: tt.humidity, WindSpeed: 10}
			alerts := EvaluateAlerts(cur)
			if len(alerts) != 1 {
				t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
			}
			if alerts[0].Type != tt.wantType {
				t.Errorf("type = %s, want %s", alerts[0].Type, tt.wantType)
			}
			if alerts[0].Severity != notify.SeverityWarning {
				t.Errorf("severity = %s, want warning", alerts[0].Severity)
			}
		})
	}
}

func TestEvaluateAlertsWind(t *testing.T) {
	tests := []struct {
		name         string
		windKmh      float64
		wantType     notify.AlertType
		wantSeverity notify.Severity
	}{
		{"storm", 55, notify.AlertStorm, notify.SeverityCritical},
		{"storm boundary", 50, notify.AlertStorm, notify.SeverityCritical},
		{"strong wind", 35, notify.AlertWind, notify.SeverityWarning},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := &Current{Temperature: 25, Humidity: 50, WindSpeed: tt.windKmh}
			alerts := EvaluateAlerts(cur)
			if len(alerts) != 1 {
				t.Fatalf("got %d alerts, want 1: %+v", len(alerts), alerts)
			}
			if alerts[0].Type != tt.wantType || alerts[0].Severity != tt.wantSeverity {
				t.Errorf("alert = %+v", alerts[0])
			}
		})
	}
}

func TestEvaluateAlertsRainDescription(t *testing.T) {
	for _, desc := range []string{"light rain", "Heavy Showers"} {
		cur := &Current{Temperature: 25, Humidity: 50, WindSpeed: 10, Description: desc}
		alerts := EvaluateAlerts(cur)
		if len(alerts) != 1 {
			t.Fatalf("%q: got %d alerts, want 1", desc, len(alerts))
		}
		if alerts[0].Type != notify.AlertHeavyRain || alerts[0].Severity != notify.SeverityInfo {
			t.Errorf("%q: alert = %+v", desc, alerts[0])
		}
	}
}

func TestEvaluateAlertsStack(t *testing.T) {
	// Hot, humid and windy with rain in the description raises all four
	// alert classes at once.
	cur := &Current{Temperature: 36, Humidity: 92, WindSpeed: 52, Description: "thundery rain"}
	alerts := EvaluateAlerts(cur)
	if len(alerts) != 4 {
		t.Fatalf("got %d alerts, want 4: %+v", len(alerts), alerts)
	}
	types := make(map[notify.AlertType]bool)
	for _, a := range alerts {
		types[a.Type] = true
	}
	for _, want := range []notify.AlertType{notify.AlertHeatWave, notify.AlertHumidity, notify.AlertStorm, notify.AlertHeavyRain} {
		if !types[want] {
			t.Errorf("missing alert type %s", want)
		}
	}
}

func TestEvaluateAlertsCalm(t *testing.T) {
	cur := &Current{Temperature: 24, Humidity: 55, WindSpeed: 8, Description: "clear sky"}
	if alerts := EvaluateAlerts(cur); len(alerts) != 0 {
		t.Fatalf("got %d alerts, want none: %+v", len(alerts), alerts)
	}
	if alerts := EvaluateAlerts(nil); alerts != nil {
		t.Fatalf("nil input: got %+v", alerts)
	}
}

func TestAlertMessagesIncludeReadings(t *testing.T) {
	cur := &Current{Temperature: 37.5, Humidity: 50, WindSpeed: 10}
	alerts := EvaluateAlerts(cur)
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts", len(alerts))
	}
	if !strings.Contains(alerts[0].Message, "37.5°C") {
		t.Errorf("message missing reading: %q", alerts[0].Message)
	}
}
