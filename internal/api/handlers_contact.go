// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/securecrop/securecrop/internal/database"
)

func (rt *Router) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ContactRequest
	details, err := decodeAndValidate(r, &req)
	if err != nil {
		if details != nil {
			rw.ValidationError("Invalid contact message", details)
			return
		}
		rw.BadRequest(err.Error())
		return
	}

	category := req.Category
	if category == "" {
		category = database.ContactCategoryGeneral
	}

	now := time.Now().UTC()
	msg := &database.ContactMessage{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Subject:   req.Subject,
		Message:   req.Message,
		Category:  category,
		Status:    database.ContactStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := rt.store.InsertContactMessage(r.Context(), msg); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Created(msg)
}

func (rt *Router) handleListContact(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	status := r.URL.Query().Get("status")
	switch status {
	case "", database.ContactStatusPending, database.ContactStatusInProgress,
		database.ContactStatusResolved, database.ContactStatusClosed:
	default:
		rw.BadRequest("invalid status filter")
		return
	}

	messages, err := rt.store.ListContactMessages(r.Context(), status, limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(messages, &PaginationMeta{
		Count:   len(messages),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(messages) == limit,
	})
}

func (rt *Router) handleCreateFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req FeedbackRequest
	details, err := decodeAndValidate(r, &req)
	if err != nil {
		if details != nil {
			rw.ValidationError("Invalid feedback", details)
			return
		}
		rw.BadRequest(err.Error())
		return
	}

	entry := &database.FeedbackEntry{
		ID:        uuid.NewString(),
		OwnerID:   req.OwnerID,
		Rating:    req.Rating,
		Comments:  req.Comments,
		CreatedAt: time.Now().UTC(),
	}
	if err := rt.store.InsertFeedback(r.Context(), entry); err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Created(entry)
}

// handleListFeedback returns the entries plus aggregate rating stats.
func (rt *Router) handleListFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	entries, err := rt.store.ListFeedback(r.Context(), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	stats, err := rt.store.GetFeedbackStats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(map[string]interface{}{
		"entries": entries,
		"stats":   stats,
	}, &PaginationMeta{
		Total:   stats.Count,
		Count:   len(entries),
		Offset:  offset,
		Limit:   limit,
		HasMore: int64(offset+len(entries)) < stats.Count,
	})
}

func (rt *Router) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := pagination(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	activeOnly := r.URL.Query().Get("active") != "false"

	notifications, err := rt.store.ListNotifications(r.Context(), activeOnly, limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(notifications, &PaginationMeta{
		Count:   len(notifications),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(notifications) == limit,
	})
}
