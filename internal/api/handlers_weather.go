// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"errors"
	"net/http"

	"github.com/securecrop/securecrop/internal/weather"
)

func (rt *Router) weatherCoordinates(r *http.Request) (lat, lon float64, err error) {
	return coordinates(r, rt.cfg.Weather.DefaultLat, rt.cfg.Weather.DefaultLon)
}

func (rt *Router) fetchCurrent(w http.ResponseWriter, r *http.Request) (*weather.Current, *ResponseWriter, bool) {
	rw := NewResponseWriter(w, r)

	lat, lon, err := rt.weatherCoordinates(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return nil, rw, false
	}

	cur, err := rt.weather.Current(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrNoAPIKey) {
			rw.ServiceUnavailable("Weather service is not configured")
			return nil, rw, false
		}
		rw.ExternalServiceError("weather", err)
		return nil, rw, false
	}
	return cur, rw, true
}

func (rt *Router) handleWeatherCurrent(w http.ResponseWriter, r *http.Request) {
	cur, rw, ok := rt.fetchCurrent(w, r)
	if !ok {
		return
	}
	rw.Success(cur)
}

func (rt *Router) handleWeatherForecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lat, lon, err := rt.weatherCoordinates(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	days, err := queryInt(r, "days", 5)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	forecast, err := rt.weather.Forecast(r.Context(), lat, lon, days)
	if err != nil {
		if errors.Is(err, weather.ErrNoAPIKey) {
			rw.ServiceUnavailable("Weather service is not configured")
			return
		}
		rw.ExternalServiceError("weather", err)
		return
	}
	rw.Success(forecast)
}

func (rt *Router) handleWeatherAlerts(w http.ResponseWriter, r *http.Request) {
	cur, rw, ok := rt.fetchCurrent(w, r)
	if !ok {
		return
	}
	alerts := weather.EvaluateAlerts(cur)
	if alerts == nil {
		alerts = []weather.Alert{}
	}
	rw.Success(alerts)
}

func (rt *Router) handleWeatherRisk(w http.ResponseWriter, r *http.Request) {
	cur, rw, ok := rt.fetchCurrent(w, r)
	if !ok {
		return
	}
	rw.Success(weather.AssessRisk(cur))
}
