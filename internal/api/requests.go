// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/soil"
)

// maxRequestBody bounds request bodies; soil readings and contact
// forms are small.
const maxRequestBody = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// ReadingRequest is the POST /readings payload. Struct validation
// rejects malformed payloads before the range validator sees them; the
// physical bounds themselves belong to the screening stage.
type ReadingRequest struct {
	Nitrogen    *float64 `json:"nitrogen" validate:"required"`
	Phosphorus  *float64 `json:"phosphorus" validate:"required"`
	Potassium   *float64 `json:"potassium" validate:"required"`
	PH          *float64 `json:"ph" validate:"required"`
	Moisture    *float64 `json:"moisture" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
	OwnerID     string   `json:"owner_id" validate:"omitempty,max=128"`
}

// Input converts the request to the pipeline input.
func (r *ReadingRequest) Input() *soil.Input {
	return &soil.Input{
		Nitrogen:    *r.Nitrogen,
		Phosphorus:  *r.Phosphorus,
		Potassium:   *r.Potassium,
		PH:          *r.PH,
		Moisture:    *r.Moisture,
		Temperature: *r.Temperature,
	}
}

// ContactRequest is the POST /contact payload.
type ContactRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Subject  string `json:"subject" validate:"required,max=200"`
	Message  string `json:"message" validate:"required,max=5000"`
	Category string `json:"category" validate:"omitempty,oneof=general technical feedback bug feature other"`
}

// FeedbackRequest is the POST /feedback payload.
type FeedbackRequest struct {
	OwnerID  string `json:"owner_id" validate:"omitempty,max=128"`
	Rating   int    `json:"rating" validate:"required,min=1,max=5"`
	Comments string `json:"comments" validate:"omitempty,max=5000"`
}

// decodeAndValidate parses the JSON body into dst and runs struct
// validation. The returned details map field names to the failed rule.
func decodeAndValidate(r *http.Request, dst interface{}) (map[string]string, error) {
	body := http.MaxBytesReader(nil, r.Body, maxRequestBody)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				details[fe.Field()] = fe.Tag()
			}
			return details, errors.New("validation failed")
		}
		return nil, err
	}
	return nil, nil
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

// queryFloat parses a float query parameter with a default.
func queryFloat(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

// pagination parses limit/offset with bounds.
func pagination(r *http.Request) (limit, offset int, err error) {
	limit, err = queryInt(r, "limit", 50)
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > 500 {
		return 0, 0, errors.New("limit must be between 1 and 500")
	}
	offset, err = queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, errors.New("offset must not be negative")
	}
	return limit, offset, nil
}

// coordinates parses lat/lon falling back to the configured defaults.
func coordinates(r *http.Request, defLat, defLon float64) (lat, lon float64, err error) {
	lat, err = queryFloat(r, "lat", defLat)
	if err != nil {
		return 0, 0, err
	}
	if lat < -90 || lat > 90 {
		return 0, 0, errors.New("lat must be between -90 and 90")
	}
	lon, err = queryFloat(r, "lon", defLon)
	if err != nil {
		return 0, 0, err
	}
	if lon < -180 || lon > 180 {
		return 0, 0, errors.New("lon must be between -180 and 180")
	}
	return lat, lon, nil
}
