package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/report"
	"github.com/seoaudit/seoaudit/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(filepath.Join(t.TempDir(), "runner_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// unreachableProject points at a port nothing listens on. The crawl itself
// still succeeds: the seed becomes a fetch-failure page record.
func unreachableProject(t *testing.T, s *storage.Store) *audit.Project {
	t.Helper()
	p := &audit.Project{
		TenantID: "t1", Name: "Unreachable", Domain: "127.0.0.1:9",
		AuthType: audit.AuthNone, RecurringSchedule: audit.ScheduleNone,
		MaxConcurrency: 1, DelayMS: 1, TimeoutSeconds: 1,
		MaxPages: 5, MaxDepth: 2, IsActive: true,
	}
	require.NoError(t, s.CreateProject(p))
	return p
}

func TestRunCompletesWithFetchFailure(t *testing.T) {
	s := newTestStore(t)
	p := unreachableProject(t, s)

	r := New(s, nil, testLogger())
	a, err := r.Run(context.Background(), "t1", p.ID, false)
	require.NoError(t, err)

	assert.True(t, a.IsCompleted())
	assert.Equal(t, 1, a.PagesCrawled)
	assert.Equal(t, 1, a.PagesNonIndexable)
	assert.GreaterOrEqual(t, a.IssuesError, 1)
	require.NotNil(t, a.HealthScore)

	pages, err := s.ListPages("t1", a.ID)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 0, pages[0].StatusCode)

	// The project carries the finish timestamp.
	got, err := s.GetProject("t1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastAuditAt)
}

func TestRunRejectsConcurrentAudit(t *testing.T) {
	s := newTestStore(t)
	p := unreachableProject(t, s)

	_, err := s.StartAudit(p)
	require.NoError(t, err)

	r := New(s, nil, testLogger())
	_, err = r.Run(context.Background(), "t1", p.ID, false)
	assert.ErrorIs(t, err, ErrAuditInProgress)
}

func TestRunCancelledContextFailsAudit(t *testing.T) {
	s := newTestStore(t)
	p := unreachableProject(t, s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := New(s, nil, testLogger())
	a, err := r.Run(ctx, "t1", p.ID, false)
	require.NoError(t, err)

	assert.True(t, a.IsFailed())
	assert.Equal(t, "crawl cancelled by operator", a.ErrorMessage)
	assert.Nil(t, a.HealthScore)
}

func TestRunUnknownProject(t *testing.T) {
	s := newTestStore(t)
	r := New(s, nil, testLogger())

	_, err := r.Run(context.Background(), "t1", "nope", false)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestGenerateReportForCompletedAudit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		fmt.Fprint(w, `{
			"choices": [{"message": {"content": "{\"executive_summary\": \"Summary.\"}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5}
		}`)
	}))
	defer server.Close()

	s := newTestStore(t)
	p := unreachableProject(t, s)

	gen := report.NewGenerator(report.Config{
		Provider: "openai", Model: "gpt-4o-mini", BaseURL: server.URL,
	}, s, testLogger())
	r := New(s, gen, testLogger())

	a, err := r.Run(context.Background(), "t1", p.ID, false)
	require.NoError(t, err)

	rep, err := r.GenerateReport(context.Background(), "t1", a.ID)
	require.NoError(t, err)
	assert.True(t, rep.IsCompleted())
	assert.Equal(t, "Summary.", rep.ExecutiveSummary)

	// Second generation conflicts with the unique report per audit.
	_, err = r.GenerateReport(context.Background(), "t1", a.ID)
	assert.ErrorIs(t, err, storage.ErrReportExists)
}

func TestGenerateReportRequiresProvider(t *testing.T) {
	s := newTestStore(t)
	r := New(s, nil, testLogger())

	_, err := r.GenerateReport(context.Background(), "t1", "a1")
	assert.Error(t, err)
}

func TestGenerateReportRequiresCompletedAudit(t *testing.T) {
	s := newTestStore(t)
	p := unreachableProject(t, s)
	a, err := s.StartAudit(p)
	require.NoError(t, err)

	gen := report.NewGenerator(report.Config{Model: "m", BaseURL: "http://127.0.0.1:9"}, s, testLogger())
	r := New(s, gen, testLogger())

	_, err = r.GenerateReport(context.Background(), "t1", a.ID)
	assert.ErrorContains(t, err, "running")
}
