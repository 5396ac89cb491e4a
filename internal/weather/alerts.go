// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

import (
	"fmt"
	"strings"

	"github.com/securecrop/securecrop/internal/notify"
)

// Alert thresholds. Temperatures are Celsius, wind is km/h.
const (
	heatDangerTemp  = 35.0
	heatWarningTemp = 32.0
	frostTemp       = 5.0
	coldWarningTemp = 10.0
	highHumidity    = 90
	lowHumidity     = 30
	stormWindSpeed  = 50.0
	strongWindSpeed = 30.0
)

// EvaluateAlerts derives farming alerts from current conditions. The
// temperature checks are mutually exclusive; the rest stack.
func EvaluateAlerts(cur *Current) []Alert {
	if cur == nil {
		return nil
	}

	var alerts []Alert

	switch {
	case cur.Temperature >= heatDangerTemp:
		alerts = append(alerts, Alert{
			Type:     notify.AlertHeatWave,
			Severity: notify.SeverityDanger,
			Title:    "Heat Warning",
			Message: fmt.Sprintf("HEAT WARNING: Temperature is %.1f°C. Protect your crops from heat stress. Water plants early morning or late evening.",
				cur.Temperature),
		})
	case cur.Temperature >= heatWarningTemp:
		alerts = append(alerts, Alert{
			Type:     notify.AlertHeatWave,
			Severity: notify.SeverityWarning,
			Title:    "High Temperature Alert",
			Message: fmt.Sprintf("High Temperature Alert: %.1f°C. Consider shade covers for sensitive crops.",
				cur.Temperature),
		})
	case cur.Temperature <= frostTemp:
		alerts = append(alerts, Alert{
			Type:     notify.AlertColdWave,
			Severity: notify.SeverityDanger,
			Title:    "Frost Warning",
			Message: fmt.Sprintf("FROST WARNING: Temperature is %.1f°C. Protect crops from cold damage. Cover sensitive plants.",
				cur.Temperature),
		})
	case cur.Temperature <= coldWarningTemp:
		alerts = append(alerts, Alert{
			Type:     notify.AlertColdWave,
			Severity: notify.SeverityWarning,
			Title:    "Cold Alert",
			Message: fmt.Sprintf("Cold Alert: Temperature dropped to %.1f°C. Monitor cold-sensitive crops.",
				cur.Temperature),
		})
	}

	switch {
	case cur.Humidity >= highHumidity:
		alerts = append(alerts, Alert{
			Type:     notify.AlertHumidity,
			Severity: notify.SeverityWarning,
			Title:    "High Humidity Alert",
			Message: fmt.Sprintf("High Humidity Alert: %d%%. Watch for fungal diseases. Ensure good ventilation.",
				cur.Humidity),
		})
	case cur.Humidity <= lowHumidity:
		alerts = append(alerts, Alert{
			Type:     notify.AlertDrought,
			Severity: notify.SeverityWarning,
			Title:    "Low Humidity Alert",
			Message: fmt.Sprintf("Low Humidity Alert: %d%%. Increase watering frequency for crops.",
				cur.Humidity),
		})
	}

	switch {
	case cur.WindSpeed >= stormWindSpeed:
		alerts = append(alerts, Alert{
			Type:     notify.AlertStorm,
			Severity: notify.SeverityCritical,
			Title:    "Storm Warning",
			Message: fmt.Sprintf("STORM WARNING: Wind speed %.1f km/h. Secure equipment and protect crops!",
				cur.WindSpeed),
		})
	case cur.WindSpeed >= strongWindSpeed:
		alerts = append(alerts, Alert{
			Type:     notify.AlertWind,
			Severity: notify.SeverityWarning,
			Title:    "Strong Wind Alert",
			Message: fmt.Sprintf("Strong Wind Alert: %.1f km/h. Consider wind barriers for tall crops.",
				cur.WindSpeed),
		})
	}

	desc := strings.ToLower(cur.Description)
	if strings.Contains(desc, "rain") || strings.Contains(desc, "shower") {
		alerts = append(alerts, Alert{
			Type:     notify.AlertHeavyRain,
			Severity: notify.SeverityInfo,
			Title:    "Rain Expected",
			Message: fmt.Sprintf("Rain Expected: %s. Good time to pause irrigation.",
				cur.Description),
		})
	}

	return alerts
}
