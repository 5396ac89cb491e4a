// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package weather

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/securecrop/securecrop/internal/config"
	"github.com/securecrop/securecrop/internal/logging"
	"github.com/securecrop/securecrop/internal/metrics"
	"github.com/securecrop/securecrop/internal/notify"
)

// notificationStore is the persistence surface the poller needs.
// Satisfied by *database.DB.
type notificationStore interface {
	InsertNotification(ctx context.Context, n *notify.Notification) error
}

// alertSender forwards severe notifications to an external channel.
// Satisfied by *notify.WebhookNotifier.
type alertSender interface {
	Send(ctx context.Context, n *notify.Notification) error
}

// Poller periodically fetches current conditions for the configured
// default location, evaluates alert rules, and persists any raised
// alerts as notifications. It implements suture.Service.
type Poller struct {
	client   *Client
	store    notificationStore
	sender   alertSender
	interval time.Duration
	lat, lon float64
}

// NewPoller builds a weather alert poller. sender may be nil when no
// webhook is configured.
func NewPoller(client *Client, store notificationStore, sender alertSender, cfg config.WeatherConfig) *Poller {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Poller{
		client:   client,
		store:    store,
		sender:   sender,
		interval: interval,
		lat:      cfg.DefaultLat,
		lon:      cfg.DefaultLon,
	}
}

// Serve runs the poll loop until the context is canceled. The first
// evaluation happens immediately so alerts are available at startup.
func (p *Poller) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (p *Poller) String() string {
	return "weather-poller"
}

func (p *Poller) poll(ctx context.Context) {
	log := logging.Ctx(ctx)

	cur, err := p.client.Current(ctx, p.lat, p.lon)
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			log.Debug().Msg("weather poller skipped, no API key configured")
			return
		}
		log.Warn().Err(err).Msg("weather poll failed")
		return
	}

	metrics.WeatherAlertsEvaluated.Inc()
	alerts := EvaluateAlerts(cur)
	if len(alerts) == 0 {
		return
	}

	now := time.Now().UTC()
	// Alerts expire two poll cycles out so the active list tracks the
	// latest evaluation without manual cleanup.
	expiry := now.Add(2 * p.interval)

	for _, alert := range alerts {
		metrics.WeatherAlertsRaised.WithLabelValues(string(alert.Type), string(alert.Severity)).Inc()

		n := &notify.Notification{
			ID:        uuid.NewString(),
			Title:     alert.Title,
			Message:   alert.Message,
			AlertType: alert.Type,
			Severity:  alert.Severity,
			Latitude:  p.lat,
			Longitude: p.lon,
			Active:    true,
			CreatedAt: now,
			ExpiresAt: &expiry,
		}
		if err := p.store.InsertNotification(ctx, n); err != nil {
			log.Error().Err(err).Str("alert_type", string(alert.Type)).Msg("failed to persist weather notification")
			continue
		}
		if p.sender != nil {
			if err := p.sender.Send(ctx, n); err != nil {
				log.Warn().Err(err).Str("alert_type", string(alert.Type)).Msg("webhook delivery failed")
			}
		}
		log.Info().
			Str("alert_type", string(alert.Type)).
			Str("severity", string(alert.Severity)).
			Str("title", alert.Title).
			Msg("weather alert raised")
	}
}
