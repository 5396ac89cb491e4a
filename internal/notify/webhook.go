// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/metrics"
)

// WebhookNotifier forwards severe weather notifications to an external
// webhook endpoint. A notifier with an empty URL is a no-op.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// WebhookPayload is the JSON body posted to the webhook endpoint.
type WebhookPayload struct {
	Notification *Notification `json:"notification"`
	EventType    string        `json:"event_type"`
	Timestamp    time.Time     `json:"timestamp"`
	Source       string        `json:"source"`
}

// AuditEvent describes a screening outcome severe enough to forward to
// the webhook endpoint.
type AuditEvent struct {
	ReadingID string `json:"reading_id"`
	CheckType string `json:"check_type"`
	Status    string `json:"status"`
	Details   string `json:"details,omitempty"`
}

// AuditWebhookPayload is the JSON body posted for audit events.
type AuditWebhookPayload struct {
	Audit     *AuditEvent `json:"audit"`
	EventType string      `json:"event_type"`
	Timestamp time.Time   `json:"timestamp"`
	Source    string      `json:"source"`
}

// NewWebhookNotifier builds a notifier from config. Timeout defaults to
// 10s when unset.
func NewWebhookNotifier(cfg config.NotifyConfig) *WebhookNotifier {
	timeout := cfg.WebhookTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    cfg.WebhookURL,
		client: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the notifier has a destination configured.
func (n *WebhookNotifier) Enabled() bool {
	return n.url != ""
}

// Send posts the notification to the configured webhook. Only danger and
// critical severities are forwarded; everything else is dropped silently.
func (n *WebhookNotifier) Send(ctx context.Context, notification *Notification) error {
	if !n.Enabled() {
		return nil
	}
	if notification.Severity != SeverityDanger && notification.Severity != SeverityCritical {
		return nil
	}

	payload := WebhookPayload{
		Notification: notification,
		EventType:    "weather_alert",
		Timestamp:    time.Now().UTC(),
		Source:       "securecrop",
	}
	return n.post(ctx, payload)
}

// SendAudit posts a screening outcome to the configured webhook. Only
// tampered outcomes are forwarded; everything else is dropped silently.
func (n *WebhookNotifier) SendAudit(ctx context.Context, ev *AuditEvent) error {
	if !n.Enabled() {
		return nil
	}
	if ev.Status != "TAMPERED" {
		return nil
	}

	payload := AuditWebhookPayload{
		Audit:     ev,
		EventType: "security_audit",
		Timestamp: time.Now().UTC(),
		Source:    "securecrop",
	}
	return n.post(ctx, payload)
}

func (n *WebhookNotifier) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := n.client.Do(req)
	metrics.RecordExternalRequest("webhook", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
