// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

// Package weather integrates OpenWeatherMap: current conditions, a
// short aggregated forecast, condition-derived farming alerts, a
// climate risk score and a supervised poller that persists alert
// notifications.
package weather

import "github.com/securecrop/securecrop/internal/notify"

// Current is the normalized current-conditions report. Wind speed is
// km/h, visibility is km.
type Current struct {
	Temperature     float64 `json:"temperature"`
	FeelsLike       float64 `json:"feels_like"`
	Humidity        int     `json:"humidity"`
	Pressure        int     `json:"pressure"`
	WindSpeed       float64 `json:"wind_speed"`
	WindDirection   int     `json:"wind_direction"`
	Description     string  `json:"description"`
	Icon            string  `json:"icon"`
	Main            string  `json:"main"`
	Visibility      float64 `json:"visibility"`
	Clouds          int     `json:"clouds"`
	RainProbability int     `json:"rain_probability"`
	Sunrise         int64   `json:"sunrise"`
	Sunset          int64   `json:"sunset"`
	City            string  `json:"city"`
	Country         string  `json:"country"`
	Timestamp       int64   `json:"timestamp"`
}

// DailyForecast is one day aggregated from the 3-hourly forecast feed.
type DailyForecast struct {
	Date            string  `json:"date"`
	TemperatureMin  float64 `json:"temperature_min"`
	TemperatureMax  float64 `json:"temperature_max"`
	Humidity        int     `json:"humidity"`
	Condition       string  `json:"condition"`
	ConditionIcon   string  `json:"condition_icon"`
	WindSpeed       float64 `json:"wind_speed"`
	RainProbability float64 `json:"rain_probability"`
}

// Alert is a condition-derived farming alert.
type Alert struct {
	Type     notify.AlertType `json:"type"`
	Severity notify.Severity  `json:"severity"`
	Title    string           `json:"title"`
	Message  string           `json:"message"`
}

// RiskAssessment is the climate risk score for a location, 0-100 with
// the contributing factors and mitigation recommendations.
type RiskAssessment struct {
	Score           int      `json:"score"`
	Level           string   `json:"level"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}
