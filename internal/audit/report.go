package audit

import (
	"strings"
	"time"
)

// ReportStatus is the lifecycle state of an AI report.
type ReportStatus string

// AI report states.
const (
	ReportCompleted ReportStatus = "completed"
	ReportFailed    ReportStatus = "failed"
)

// AIReport is the LLM-generated narrative summary attached 1:1 to a
// completed audit. On failure the narrative sections stay empty and
// ErrorMessage is populated; the owning audit's status is unaffected.
type AIReport struct {
	ID       string
	TenantID string
	AuditID  string

	Provider       string
	Model          string
	PromptTemplate string

	ExecutiveSummary        string
	PrioritizedActions      string
	QuickWins               string
	RisksDependencies       string
	LongTermRecommendations string

	TokensInput  int
	TokensOutput int
	TokensTotal  int
	CostUSD      float64

	GenerationDurationMS int

	Status       ReportStatus
	ErrorMessage string
	GeneratedAt  *time.Time

	CreatedAt time.Time
}

// IsCompleted reports whether the report was generated successfully.
func (r *AIReport) IsCompleted() bool { return r.Status == ReportCompleted }

// IsFailed reports whether generation failed.
func (r *AIReport) IsFailed() bool { return r.Status == ReportFailed }

// FullReportMarkdown concatenates the non-empty narrative sections with
// markdown H2 headers, joined by blank lines. Empty sections produce no
// header.
func (r *AIReport) FullReportMarkdown() string {
	var sections []string

	add := func(header, body string) {
		if body != "" {
			sections = append(sections, "## "+header+"\n\n"+body)
		}
	}

	add("Executive Summary", r.ExecutiveSummary)
	add("Prioritized Actions", r.PrioritizedActions)
	add("Quick Wins", r.QuickWins)
	add("Risks & Dependencies", r.RisksDependencies)
	add("Long-term Recommendations", r.LongTermRecommendations)

	return strings.Join(sections, "\n\n")
}
