// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"net/http"
	"time"

	"github.com/securecrop/securecrop/internal/audit"
)

// handleListAudit serves the audit trail with optional filters:
// check_type, status, reading_id, owner_id, anomaly_only, start, end
// (RFC 3339), limit, offset.
func (rt *Router) handleListAudit(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter, err := auditFilterFromQuery(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	entries, err := rt.auditLog.Query(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	total, err := rt.auditLog.Count(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(entries, &PaginationMeta{
		Total:   total,
		Count:   len(entries),
		Offset:  filter.Offset,
		Limit:   filter.Limit,
		HasMore: int64(filter.Offset+len(entries)) < total,
	})
}

// handleAuditStats serves aggregate counts over the audit trail.
func (rt *Router) handleAuditStats(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	stats, err := rt.auditLog.GetStats(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}

func auditFilterFromQuery(r *http.Request) (audit.QueryFilter, error) {
	filter := audit.DefaultQueryFilter()
	q := r.URL.Query()

	if v := q.Get("check_type"); v != "" {
		filter.CheckTypes = []audit.CheckType{audit.CheckType(v)}
	}
	if v := q.Get("status"); v != "" {
		filter.Statuses = []audit.Status{audit.Status(v)}
	}
	filter.ReadingID = q.Get("reading_id")
	filter.OwnerID = q.Get("owner_id")
	filter.AnomalyOnly = q.Get("anomaly_only") == "true"

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.StartTime = &t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, err
		}
		filter.EndTime = &t
	}

	limit, offset, err := pagination(r)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit
	filter.Offset = offset
	return filter, nil
}
