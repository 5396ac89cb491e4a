// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package api

import (
	"net/http"
	"time"
)

// healthStatus is the /healthz payload.
type healthStatus struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp time.Time         `json:"timestamp"`
}

// handleHealth reports liveness: database reachability and model
// registry readiness. Degraded checks return 503 so orchestrators
// stop routing traffic.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{
		"database": "ok",
		"models":   "ok",
	}
	healthy := true

	if err := rt.store.Ping(r.Context()); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}
	if rt.registry == nil || rt.registry.Forest == nil || rt.registry.Bayes == nil {
		checks["models"] = "model registry not loaded"
		healthy = false
	}

	status := healthStatus{
		Status:    "healthy",
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}
	code := http.StatusOK
	if !healthy {
		status.Status = "degraded"
		code = http.StatusServiceUnavailable
	}

	rw := NewResponseWriter(w, r)
	rw.writeJSON(code, APIResponse{Success: healthy, Data: status})
}
