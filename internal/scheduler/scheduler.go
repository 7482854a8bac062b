// Package scheduler triggers recurring audits. A cron daemon maps the
// projects' daily/weekly/monthly cadence to fixed off-peak slots and runs
// the due audits sequentially across all tenants.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/runner"
	"github.com/seoaudit/seoaudit/internal/storage"
)

// Cron slots per cadence. Spread out so a project with many siblings
// never has its daily and monthly run collide.
const (
	dailySpec   = "0 2 * * *"
	weeklySpec  = "0 3 * * 0"
	monthlySpec = "0 4 1 * *"
)

// Scheduler runs recurring audits on a cron cadence.
type Scheduler struct {
	store       *storage.Store
	runner      *runner.Runner
	logger      *slog.Logger
	cron        *cron.Cron
	withReports bool
}

// New creates a scheduler. When withReports is set, every scheduled audit
// also generates its AI report.
func New(store *storage.Store, r *runner.Runner, logger *slog.Logger, withReports bool) *Scheduler {
	return &Scheduler{
		store:       store,
		runner:      r,
		logger:      logger,
		cron:        cron.New(),
		withReports: withReports,
	}
}

// Start registers the cron entries and runs the daemon until the context
// is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	specs := map[audit.Schedule]string{
		audit.ScheduleDaily:   dailySpec,
		audit.ScheduleWeekly:  weeklySpec,
		audit.ScheduleMonthly: monthlySpec,
	}

	for schedule, spec := range specs {
		schedule := schedule
		if _, err := s.cron.AddFunc(spec, func() {
			s.RunDue(ctx, schedule)
		}); err != nil {
			return err
		}
	}

	s.logger.Info("scheduler started")
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("scheduler stopped")
	return nil
}

// RunDue executes one audit for every active project on the given
// cadence. Projects with a running audit are skipped, not queued; they
// will be picked up on the next tick.
func (s *Scheduler) RunDue(ctx context.Context, schedule audit.Schedule) {
	projects, err := s.store.ListScheduledProjects()
	if err != nil {
		s.logger.Error("failed to list scheduled projects", "error", err)
		return
	}

	for _, p := range projects {
		if p.RecurringSchedule != schedule {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		running, err := s.store.HasRunningAudit(p.TenantID, p.ID)
		if err != nil {
			s.logger.Error("failed to check for running audit",
				"project_id", p.ID, "error", err)
			continue
		}
		if running {
			s.logger.Info("skipping scheduled audit, one is already running",
				"project_id", p.ID)
			continue
		}

		if err := s.store.MarkProjectScheduled(p.TenantID, p.ID, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to stamp schedule time",
				"project_id", p.ID, "error", err)
		}

		s.logger.Info("running scheduled audit",
			"project_id", p.ID, "domain", p.Domain, "schedule", string(schedule))

		if _, err := s.runner.Run(ctx, p.TenantID, p.ID, s.withReports); err != nil {
			s.logger.Error("scheduled audit failed to run",
				"project_id", p.ID, "error", err)
		}
	}
}
