// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

// Risk factor labels. Recommendations key off these exact strings.
const (
	factorExtremeTemp   = "Extreme temperature"
	factorModerateTemp  = "Moderate temperature stress"
	factorExtremeHumid  = "Extreme humidity"
	factorModerateHumid = "Moderate humidity concern"
	factorHighWind      = "High wind speed"
	factorModerateWind  = "Moderate wind"
)

// AssessRisk scores the climate risk for current conditions on a 0-100
// scale. Wind thresholds here are m/s as reported upstream, so the
// km/h-normalized report value is converted back.
func AssessRisk(cur *Current) RiskAssessment {
	if cur == nil {
		return RiskAssessment{Level: "unknown", Factors: []string{}, Recommendations: []string{}}
	}

	score := 0
	factors := []string{}

	switch {
	case cur.Temperature > 35 || cur.Temperature < 10:
		score += 30
		factors = append(factors, factorExtremeTemp)
	case cur.Temperature > 32 || cur.Temperature < 15:
		score += 15
		factors = append(factors, factorModerateTemp)
	}

	switch {
	case cur.Humidity > 90 || cur.Humidity < 30:
		score += 25
		factors = append(factors, factorExtremeHumid)
	case cur.Humidity > 80 || cur.Humidity < 40:
		score += 10
		factors = append(factors, factorModerateHumid)
	}

	windMS := cur.WindSpeed / 3.6
	switch {
	case windMS > 15:
		score += 25
		factors = append(factors, factorHighWind)
	case windMS > 10:
		score += 10
		factors = append(factors, factorModerateWind)
	}

	level := "low"
	switch {
	case score >= 60:
		level = "high"
	case score >= 30:
		level = "medium"
	}

	if score > 100 {
		score = 100
	}

	return RiskAssessment{
		Score:           score,
		Level:           level,
		Factors:         factors,
		Recommendations: riskRecommendations(factors),
	}
}

func riskRecommendations(factors []string) []string {
	present := make(map[string]bool, len(factors))
	for _, f := range factors {
		present[f] = true
	}

	recs := []string{}
	if present[factorExtremeTemp] || present[factorModerateTemp] {
		recs = append(recs,
			"Consider irrigation during cooler hours",
			"Provide shade for sensitive crops")
	}
	if present[factorExtremeHumid] || present[factorModerateHumid] {
		recs = append(recs,
			"Monitor for fungal diseases",
			"Ensure proper ventilation")
	}
	if present[factorHighWind] || present[factorModerateWind] {
		recs = append(recs,
			"Stake tall plants",
			"Delay spraying operations")
	}
	return recs
}
