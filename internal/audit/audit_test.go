package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageStatusType(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, StatusTypeSuccess},
		{204, StatusTypeSuccess},
		{301, StatusTypeRedirect},
		{404, StatusTypeClientError},
		{500, StatusTypeServerError},
		{503, StatusTypeServerError},
		{0, StatusTypeUnknown},
		{199, StatusTypeUnknown},
	}

	for _, tt := range tests {
		p := &Page{StatusCode: tt.code}
		assert.Equal(t, tt.want, p.StatusType(), "status code %d", tt.code)
	}
}

func TestPageIndexable(t *testing.T) {
	p := &Page{}
	assert.True(t, p.Indexable())

	p.IndexabilityReasons = []string{"noindex-meta"}
	assert.False(t, p.Indexable())
}

func TestIssueIsCritical(t *testing.T) {
	for _, sev := range []Severity{SeverityError, SeverityWarn, SeverityInfo} {
		i := &Issue{Severity: sev}
		assert.True(t, ValidSeverity(sev))
		assert.Equal(t, sev == SeverityError, i.IsCritical(), "severity %s", sev)
	}
	assert.False(t, ValidSeverity("FATAL"))
}

func TestSitemapHasErrors(t *testing.T) {
	s := &Sitemap{IsValidXML: true}
	assert.False(t, s.HasErrors())

	s.ParseErrors = []string{"invalid loc on line 4"}
	assert.True(t, s.HasErrors())

	s = &Sitemap{IsValidXML: false}
	assert.True(t, s.HasErrors())
}

func TestProjectHasAuthentication(t *testing.T) {
	p := &Project{AuthType: AuthNone, AuthUsername: "bob"}
	assert.False(t, p.HasAuthentication())

	p = &Project{AuthType: AuthBasic}
	assert.False(t, p.HasAuthentication(), "username missing")

	p = &Project{AuthType: AuthBasic, AuthUsername: "bob"}
	assert.True(t, p.HasAuthentication())
}

func TestProjectHasSchedule(t *testing.T) {
	p := &Project{RecurringSchedule: ScheduleNone}
	assert.False(t, p.HasSchedule())

	for _, s := range []Schedule{ScheduleDaily, ScheduleWeekly, ScheduleMonthly} {
		p.RecurringSchedule = s
		assert.True(t, p.HasSchedule(), "schedule %s", s)
	}
}

func TestProjectSnapshotIsDeepCopy(t *testing.T) {
	p := &Project{
		Domain:          "example.com",
		IncludePatterns: []string{"^/blog"},
		MaxPages:        100,
	}

	snap := p.Snapshot()
	p.IncludePatterns[0] = "^/docs"
	p.MaxPages = 5

	assert.Equal(t, "^/blog", snap.IncludePatterns[0])
	assert.Equal(t, 100, snap.MaxPages)
}

func TestAuditHealthStatus(t *testing.T) {
	score := func(v float64) *float64 { return &v }

	tests := []struct {
		score *float64
		want  string
	}{
		{nil, "unknown"},
		{score(95), "excellent"},
		{score(90), "excellent"},
		{score(75), "good"},
		{score(55), "needs_attention"},
		{score(10), "critical"},
	}
	for _, tt := range tests {
		a := &Audit{HealthScore: tt.score}
		assert.Equal(t, tt.want, a.HealthStatus())
	}
}

func TestAuditImprovedWorsened(t *testing.T) {
	delta := func(v float64) *float64 { return &v }

	a := &Audit{}
	assert.False(t, a.HasImproved())
	assert.False(t, a.HasWorsened())

	a.HealthScoreDelta = delta(3.5)
	assert.True(t, a.HasImproved())
	assert.False(t, a.HasWorsened())

	a.HealthScoreDelta = delta(-2.0)
	assert.True(t, a.HasWorsened())
}

func TestFullReportMarkdown(t *testing.T) {
	r := &AIReport{
		ExecutiveSummary: "The site is healthy overall.",
		QuickWins:        "Fix the three broken images.",
	}

	want := "## Executive Summary\n\nThe site is healthy overall.\n\n" +
		"## Quick Wins\n\nFix the three broken images."
	assert.Equal(t, want, r.FullReportMarkdown())
}

func TestFullReportMarkdownAllSections(t *testing.T) {
	r := &AIReport{
		ExecutiveSummary:        "a",
		PrioritizedActions:      "b",
		QuickWins:               "c",
		RisksDependencies:       "d",
		LongTermRecommendations: "e",
	}

	want := "## Executive Summary\n\na\n\n" +
		"## Prioritized Actions\n\nb\n\n" +
		"## Quick Wins\n\nc\n\n" +
		"## Risks & Dependencies\n\nd\n\n" +
		"## Long-term Recommendations\n\ne"
	assert.Equal(t, want, r.FullReportMarkdown())
}

func TestFullReportMarkdownEmpty(t *testing.T) {
	r := &AIReport{}
	assert.Equal(t, "", r.FullReportMarkdown())
}
