// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package explain

import (
	"fmt"
	"strings"

	"github.com/securecrop/securecrop/internal/soil"
)

// featureDescription is the farmer-facing name and unit of one feature.
type featureDescription struct {
	name string
	unit string
}

var featureDescriptions = [soil.FeatureCount]featureDescription{
	{name: "Nitrogen level", unit: "mg/kg"},
	{name: "Phosphorus level", unit: "mg/kg"},
	{name: "Potassium level", unit: "mg/kg"},
	{name: "pH level", unit: ""},
	{name: "Moisture content", unit: "%"},
	{name: "Temperature", unit: "°C"},
}

// renderText builds the full rationale: the recommendation, the ranked
// key factors with sign-based qualifiers, and the fixed soil condition
// assessments.
func renderText(in *soil.Input, label string, top []Attribution) string {
	parts := []string{
		fmt.Sprintf("The recommended crop is **%s** based on your soil analysis.", label),
		"\n\n**Key factors influencing this recommendation:**",
	}

	for i, a := range top {
		desc := featureDescriptions[a.Index]
		effect := "moderately influences"
		if a.Score > 0 {
			effect = "strongly supports"
		}
		parts = append(parts, fmt.Sprintf(
			"\n%d. **%s**: %.1f %s - This %s the recommendation for %s.",
			i+1, desc.name, a.Value, desc.unit, effect, label))
	}

	parts = append(parts, "\n\n**Soil Condition Summary:**")

	npkAvg := (in.Nitrogen + in.Phosphorus + in.Potassium) / 3
	npkStatus := "low to moderate nutrient levels"
	switch {
	case npkAvg > 100:
		npkStatus = "high nutrient levels"
	case npkAvg > 50:
		npkStatus = "moderate nutrient levels"
	}
	parts = append(parts, fmt.Sprintf(
		"- Your soil has %s (N: %.1f, P: %.1f, K: %.1f).",
		npkStatus, in.Nitrogen, in.Phosphorus, in.Potassium))

	phStatus := "neutral"
	switch {
	case in.PH < 5.5:
		phStatus = "acidic"
	case in.PH > 7.5:
		phStatus = "alkaline"
	}
	parts = append(parts, fmt.Sprintf(
		"- The pH level of %.1f indicates %s soil, which is suitable for %s.",
		in.PH, phStatus, label))

	moistureStatus := "low moisture"
	switch {
	case in.Moisture > 70:
		moistureStatus = "high moisture"
	case in.Moisture > 40:
		moistureStatus = "adequate moisture"
	}
	parts = append(parts, fmt.Sprintf(
		"- Soil moisture at %.1f%% indicates %s conditions.",
		in.Moisture, moistureStatus))

	parts = append(parts, fmt.Sprintf(
		"- Current soil temperature of %.1f°C is within the optimal range for %s.",
		in.Temperature, label))

	parts = append(parts, fmt.Sprintf(
		"\n\n**Note:** This recommendation is based on comprehensive analysis of your soil parameters "+
			"and is optimized for %s cultivation under current conditions.", label))

	return strings.Join(parts, " ")
}

// renderFallback restates the six raw values without attribution
// ranking.
func renderFallback(in *soil.Input, label string) string {
	return fmt.Sprintf(
		"The recommended crop is **%s** based on your soil parameters. "+
			"Your soil has Nitrogen: %.1f mg/kg, "+
			"Phosphorus: %.1f mg/kg, "+
			"Potassium: %.1f mg/kg, "+
			"pH: %.1f, "+
			"Moisture: %.1f%%, "+
			"and Temperature: %.1f°C. "+
			"These conditions are well-suited for %s cultivation.",
		label, in.Nitrogen, in.Phosphorus, in.Potassium, in.PH, in.Moisture, in.Temperature, label)
}
