// SecureCrop - Agricultural Advisory Platform Backend
// Copyright 2026 SecureCrop Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/securecrop/securecrop

package services

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/securecrop/securecrop/internal/logging"
)

// notificationSweeper deactivates notifications past their expiry.
// Satisfied by *database.DB.
type notificationSweeper interface {
	DeactivateExpiredNotifications(ctx context.Context) (int64, error)
}

// auditPruner removes audit entries older than a cutoff. Satisfied by
// audit.Store.
type auditPruner interface {
	Delete(ctx context.Context, olderThan time.Time) (int64, error)
}

// MaintenanceService runs periodic housekeeping: expiring stale weather
// notifications, pruning the audit trail past its retention window and
// reclaiming badger value-log space for the external API cache.
type MaintenanceService struct {
	store     notificationSweeper
	auditLog  auditPruner
	cache     *badger.DB
	interval  time.Duration
	retention time.Duration
	gcRatio   float64
}

// NewMaintenanceService creates the housekeeping loop. Any of store,
// auditLog or cache may be nil; the corresponding task is skipped.
// Interval defaults to 10 minutes.
func NewMaintenanceService(store notificationSweeper, auditLog auditPruner, cache *badger.DB, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &MaintenanceService{
		store:     store,
		auditLog:  auditLog,
		cache:     cache,
		interval:  interval,
		retention: 90 * 24 * time.Hour,
		gcRatio:   0.5,
	}
}

// Serve implements suture.Service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *MaintenanceService) String() string {
	return "maintenance"
}

func (m *MaintenanceService) sweep(ctx context.Context) {
	log := logging.Ctx(ctx)

	if m.store != nil {
		expired, err := m.store.DeactivateExpiredNotifications(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("notification expiry sweep failed")
		} else if expired > 0 {
			log.Info().Int64("expired", expired).Msg("deactivated expired notifications")
		}
	}

	if m.auditLog != nil {
		pruned, err := m.auditLog.Delete(ctx, time.Now().UTC().Add(-m.retention))
		if err != nil {
			log.Warn().Err(err).Msg("audit retention sweep failed")
		} else if pruned > 0 {
			log.Info().Int64("pruned", pruned).Msg("pruned audit entries past retention")
		}
	}

	if m.cache != nil {
		// GC until badger reports nothing left to rewrite.
		for {
			err := m.cache.RunValueLogGC(m.gcRatio)
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			if err != nil {
				log.Warn().Err(err).Msg("cache value log GC failed")
				break
			}
		}
	}
}
