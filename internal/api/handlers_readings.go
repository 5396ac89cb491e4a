// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/securecrop/securecrop/internal/audit"
	"github.com/securecrop/securecrop/internal/database"
	"github.com/securecrop/securecrop/internal/explain"
	"github.com/securecrop/securecrop/internal/guide"
	"github.com/securecrop/securecrop/internal/ml"
	"github.com/securecrop/securecrop/internal/recommend"
	"github.com/securecrop/securecrop/internal/screening"
	"github.com/securecrop/securecrop/internal/soil"
)

// readingResponse is the POST /readings success payload.
type readingResponse struct {
	Reading        *soil.Reading             `json:"reading"`
	Recommendation *recommend.Recommendation `json:"recommendation"`
	Alternative    *alternativeCrop          `json:"alternative,omitempty"`
	Prediction     *ml.DualPrediction        `json:"prediction"`
	Explanation    explain.Explanation       `json:"explanation"`
	FarmingGuide   *guide.Guide              `json:"farming_guide,omitempty"`
	Security       securityStatus            `json:"security"`
}

type alternativeCrop struct {
	CropName    string  `json:"crop_name"`
	Confidence  float64 `json:"confidence"`
	ModelsAgree bool    `json:"models_agree"`
}

type securityStatus struct {
	AnomalyDetected bool   `json:"anomaly_detected"`
	IntegrityStatus string `json:"integrity_status"`
	IntegrityHash   string `json:"integrity_hash"`
	PostCheckStatus string `json:"post_check_status"`
}

// readingDetail is the GET /readings/{id} payload.
type readingDetail struct {
	Reading        *soil.Reading             `json:"reading"`
	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`
	AuditTrail     []audit.Entry             `json:"audit_trail"`
}

func (rt *Router) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ReadingRequest
	details, err := decodeAndValidate(r, &req)
	if err != nil {
		if details != nil {
			rw.ValidationError("Invalid soil reading", details)
			return
		}
		rw.BadRequest(err.Error())
		return
	}

	result, err := rt.pipeline.Run(r.Context(), req.Input(), req.OwnerID)
	if err != nil {
		switch {
		case errors.Is(err, screening.ErrOutOfRange):
			var rangeErr *soil.RangeError
			if errors.As(err, &rangeErr) {
				rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeOutOfRange,
					rangeErr.Error(), map[string]string{"field": rangeErr.Field})
				return
			}
			rw.Error(http.StatusBadRequest, ErrCodeOutOfRange, err.Error())
		case errors.Is(err, ml.ErrModelUnavailable):
			rw.Error(http.StatusInternalServerError, ErrCodeModelUnavailable,
				"Crop prediction models are unavailable")
		default:
			rw.InternalError("Failed to process soil reading")
		}
		return
	}

	resp := readingResponse{
		Reading:        result.Reading,
		Recommendation: result.Recommendation,
		Prediction:     result.Prediction,
		Explanation:    result.Explanation,
		FarmingGuide:   result.Guide,
		Security: securityStatus{
			AnomalyDetected: result.PreCheck.AnomalyDetected,
			IntegrityStatus: string(result.PreCheck.Entry.Status),
			IntegrityHash:   result.PreCheck.IntegrityHash,
			PostCheckStatus: string(result.PostCheck.Status),
		},
	}
	if crop, conf := result.Prediction.Alternative(); crop != "" {
		resp.Alternative = &alternativeCrop{
			CropName:    crop,
			Confidence:  conf,
			ModelsAgree: false,
		}
	}
	if result.PostCheck.Status == audit.StatusTampered {
		resp.Security.IntegrityStatus = "TAMPERED"
	}

	rw.Created(resp)
}

func (rt *Router) handleListReadings(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	readings, err := rt.store.ListReadings(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	total, err := rt.store.CountReadings(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(readings, &PaginationMeta{
		Total:   total,
		Count:   len(readings),
		Offset:  offset,
		Limit:   limit,
		HasMore: int64(offset+len(readings)) < total,
	})
}

func (rt *Router) handleGetReading(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id := chi.URLParam(r, "id")

	reading, err := rt.store.GetReading(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("Reading not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	detail := readingDetail{Reading: reading}

	rec, err := rt.store.GetRecommendationByReading(r.Context(), id)
	switch {
	case err == nil:
		detail.Recommendation = rec
	case !errors.Is(err, database.ErrNotFound):
		rw.DatabaseError(err)
		return
	}

	filter := audit.DefaultQueryFilter()
	filter.ReadingID = id
	entries, err := rt.auditLog.Query(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	detail.AuditTrail = entries

	rw.Success(detail)
}

func (rt *Router) handleListRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	recs, err := rt.store.ListRecommendations(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(recs, &PaginationMeta{
		Count:   len(recs),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(recs) == limit,
	})
}
