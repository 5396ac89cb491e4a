// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package guide composes a structured farming guide for a recommended
// crop by calling an external generative-text service. The call has a
// bounded timeout and no retry: missing credentials, a non-200
// response, malformed JSON or any other failure immediately falls
// through to a deterministic static guide, never to an error.
package guide

import (
	"fmt"
	"strings"

	"github.com/securecrop/securecrop/internal/soil"
)

// Source values reported on a guide.
const (
	SourceLLM      = "gemini_ai"
	SourceFallback = "fallback"
)

// Problem is one common cultivation problem and its remedy.
type Problem struct {
	Problem  string `json:"problem"`
	Solution string `json:"solution"`
}

// Guide is the structured multi-section farming guide returned to the
// farmer alongside the recommendation.
type Guide struct {
	Source            string    `json:"source"`
	CropName          string    `json:"crop_name"`
	WhyRecommended    string    `json:"why_recommended"`
	CultivationSteps  []string  `json:"cultivation_steps"`
	WateringGuide     string    `json:"watering_guide"`
	FertilizationTips string    `json:"fertilization_tips"`
	HarvestingTips    string    `json:"harvesting_tips"`
	CommonProblems    []Problem `json:"common_problems"`
	ExpectedYield     string    `json:"expected_yield"`
	GrowthDuration    string    `json:"growth_duration"`
}

// Fallback builds the static guide keyed only by crop name and the soil
// summary. It cannot fail.
func Fallback(crop string, in *soil.Input) *Guide {
	return &Guide{
		Source:   SourceFallback,
		CropName: crop,
		WhyRecommended: capitalize(crop) + " is well-suited for your soil conditions with pH " +
			formatFloat(in.PH) + ", moisture " + formatFloat(in.Moisture) +
			"%, and the current nutrient levels (N: " + formatFloat(in.Nitrogen) +
			", P: " + formatFloat(in.Phosphorus) + ", K: " + formatFloat(in.Potassium) + " mg/kg).",
		CultivationSteps: []string{
			"Prepare the land by clearing weeds and tilling the soil",
			"Select high-quality seeds from certified sources",
			"Plant seeds at recommended depth and spacing",
			"Water regularly based on soil moisture levels",
			"Apply fertilizers as per soil test recommendations",
			"Monitor for pests and diseases regularly",
			"Harvest when the crop reaches maturity",
		},
		WateringGuide:     "Water regularly, maintaining optimal soil moisture. Adjust frequency based on weather conditions.",
		FertilizationTips: "Apply balanced NPK fertilizer based on soil test results. Side-dress during growth stages.",
		HarvestingTips:    "Harvest " + crop + " when it reaches full maturity. Check for signs of ripeness specific to the crop.",
		CommonProblems: []Problem{
			{Problem: "Pest infestation", Solution: "Use integrated pest management techniques"},
			{Problem: "Nutrient deficiency", Solution: "Apply appropriate fertilizers based on symptoms"},
			{Problem: "Water stress", Solution: "Maintain consistent irrigation schedule"},
		},
		ExpectedYield:  "Varies based on variety and management practices",
		GrowthDuration: "Varies by variety - consult local extension services",
	}
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
