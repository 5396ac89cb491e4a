// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package soil

import "fmt"

// Physical plausibility bounds for each feature. Values outside these
// closed intervals are rejected outright; the anomaly screener handles
// in-range but statistically unusual values separately.
const (
	NutrientMin = 0.0
	NutrientMax = 200.0
	PHMin       = 0.0
	PHMax       = 14.0
	MoistureMin = 0.0
	MoistureMax = 100.0
	TempMin     = -10.0
	TempMax     = 60.0
)

// RangeError reports the first feature that violated its bound.
type RangeError struct {
	Field   string
	Value   float64
	Message string
}

func (e *RangeError) Error() string {
	return e.Message
}

// rangeChecks is evaluated in canonical feature order. Validation is
// short-circuit: the first violation wins, matching the audit contract
// of one OUT_OF_RANGE entry per rejected request.
var rangeChecks = []struct {
	field   string
	min     float64
	max     float64
	message string
	extract func(*Input) float64
}{
	{"nitrogen", NutrientMin, NutrientMax, "N level out of range (0-200)",
		func(in *Input) float64 { return in.Nitrogen }},
	{"phosphorus", NutrientMin, NutrientMax, "P level out of range (0-200)",
		func(in *Input) float64 { return in.Phosphorus }},
	{"potassium", NutrientMin, NutrientMax, "K level out of range (0-200)",
		func(in *Input) float64 { return in.Potassium }},
	{"ph", PHMin, PHMax, "pH out of range (0-14)",
		func(in *Input) float64 { return in.PH }},
	{"moisture", MoistureMin, MoistureMax, "Moisture out of range (0-100)",
		func(in *Input) float64 { return in.Moisture }},
	{"temperature", TempMin, TempMax, "Temperature out of range (-10 to 60)",
		func(in *Input) float64 { return in.Temperature }},
}

// ValidateRanges checks each feature against its physical bound and
// returns the first violation, or nil when all values are plausible.
func ValidateRanges(in *Input) *RangeError {
	for _, check := range rangeChecks {
		v := check.extract(in)
		if v < check.min || v > check.max {
			return &RangeError{
				Field:   check.field,
				Value:   v,
				Message: check.message,
			}
		}
	}
	return nil
}

// Bounds returns the [min,max] interval for the feature at index i in
// canonical order. Used by the anomaly screener to draw synthetic
// training samples from the same ranges the validator accepts.
func Bounds(i int) (min, max float64) {
	if i < 0 || i >= FeatureCount {
		panic(fmt.Sprintf("soil: feature index %d out of range", i))
	}
	c := rangeChecks[i]
	return c.min, c.max
}
