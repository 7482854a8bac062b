package scheduler

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/runner"
	"github.com/seoaudit/seoaudit/internal/storage"
)

func newTestScheduler(t *testing.T) (*Scheduler, *storage.Store) {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "scheduler_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(s, runner.New(s, nil, logger), logger, false), s
}

func seedProject(t *testing.T, s *storage.Store, tenantID string, schedule audit.Schedule, active bool) *audit.Project {
	t.Helper()
	p := &audit.Project{
		TenantID: tenantID, Name: "Scheduled", Domain: "127.0.0.1:9",
		AuthType: audit.AuthNone, RecurringSchedule: schedule,
		MaxConcurrency: 1, DelayMS: 1, TimeoutSeconds: 1,
		MaxPages: 3, MaxDepth: 1, IsActive: active,
	}
	require.NoError(t, s.CreateProject(p))
	return p
}

func TestCronSpecsParse(t *testing.T) {
	for _, spec := range []string{dailySpec, weeklySpec, monthlySpec} {
		_, err := cron.ParseStandard(spec)
		assert.NoError(t, err, "spec %q", spec)
	}
}

func TestRunDueTriggersMatchingProjects(t *testing.T) {
	sched, store := newTestScheduler(t)

	daily := seedProject(t, store, "t1", audit.ScheduleDaily, true)
	weekly := seedProject(t, store, "t1", audit.ScheduleWeekly, true)
	otherTenant := seedProject(t, store, "t2", audit.ScheduleDaily, true)

	sched.RunDue(context.Background(), audit.ScheduleDaily)

	for _, p := range []*audit.Project{daily, otherTenant} {
		audits, err := store.ListAudits(p.TenantID, p.ID)
		require.NoError(t, err)
		require.Len(t, audits, 1, "project %s should have been audited", p.Name)

		got, err := store.GetProject(p.TenantID, p.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.LastScheduledAt)
	}

	audits, err := store.ListAudits("t1", weekly.ID)
	require.NoError(t, err)
	assert.Empty(t, audits, "weekly project must not run on the daily tick")
}

func TestRunDueSkipsInactiveProjects(t *testing.T) {
	sched, store := newTestScheduler(t)
	inactive := seedProject(t, store, "t1", audit.ScheduleDaily, false)

	sched.RunDue(context.Background(), audit.ScheduleDaily)

	audits, err := store.ListAudits("t1", inactive.ID)
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestRunDueSkipsRunningAudit(t *testing.T) {
	sched, store := newTestScheduler(t)
	p := seedProject(t, store, "t1", audit.ScheduleDaily, true)

	_, err := store.StartAudit(p)
	require.NoError(t, err)

	sched.RunDue(context.Background(), audit.ScheduleDaily)

	audits, err := store.ListAudits("t1", p.ID)
	require.NoError(t, err)
	assert.Len(t, audits, 1, "no second audit while one is running")
}
