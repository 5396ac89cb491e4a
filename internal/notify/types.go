// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package notify provides persisted alert notifications and webhook
// delivery of severe events. Email delivery is out of scope; the webhook
// is the only push channel.
package notify

import "time"

// Severity grades a notification for display and webhook filtering.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityDanger   Severity = "danger"
	SeverityCritical Severity = "critical"
)

// AlertType categorizes the weather condition that raised the alert.
type AlertType string

const (
	AlertHeatWave  AlertType = "heat_wave"
	AlertColdWave  AlertType = "cold_wave"
	AlertHeavyRain AlertType = "heavy_rain"
	AlertHumidity  AlertType = "humidity"
	AlertFlood     AlertType = "flood"
	AlertDrought   AlertType = "drought"
	AlertStorm     AlertType = "storm"
	AlertWind      AlertType = "wind"
	AlertGeneral   AlertType = "general"
)

// Notification is a persisted alert record shown to users and optionally
// pushed to the configured webhook.
type Notification struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	AlertType AlertType  `json:"alert_type"`
	Severity  Severity   `json:"severity"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
