// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/inkwell-cms/inkwell/internal/service"
)

// Scheduler runs recurring maintenance jobs, currently the audit log
// retention purge.
type Scheduler struct {
	db            *sql.DB
	cron          *cron.Cron
	logger        *slog.Logger
	retentionDays int
}

// New creates a new scheduler instance.
func New(db *sql.DB, logger *slog.Logger, retentionDays int) *Scheduler {
	return &Scheduler{
		db:            db,
		cron:          cron.New(),
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Start registers the nightly retention job and starts the cron loop.
// A retention of zero disables the purge.
func (s *Scheduler) Start() error {
	if s.retentionDays > 0 {
		// Nightly at 03:15, off the top of the hour
		if _, err := s.cron.AddFunc("15 3 * * *", func() {
			if err := s.PurgeOldEvents(context.Background()); err != nil {
				s.logger.Error("failed to purge old events", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PurgeOldEvents deletes events older than the configured retention.
func (s *Scheduler) PurgeOldEvents(ctx context.Context) error {
	events := service.NewEventService(s.db)
	deleted, err := events.DeleteOldEvents(ctx, time.Duration(s.retentionDays)*24*time.Hour)
	if err != nil {
		return err
	}
	if deleted > 0 {
		s.logger.Info("purged old events", "deleted", deleted, "retention_days", s.retentionDays)
	}
	return nil
}
