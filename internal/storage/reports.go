package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// SaveAIReport inserts the audit's AI report. The schema allows at most
// one report per audit; a second save returns ErrReportExists.
func (s *Store) SaveAIReport(r *audit.AIReport) error {
	if r.ID == "" {
		r.ID = newID()
	}
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO seo_ai_reports (
			id, tenant_id, audit_id,
			provider, model, prompt_template,
			executive_summary, prioritized_actions, quick_wins,
			risks_dependencies, long_term_recommendations,
			tokens_input, tokens_output, tokens_total, cost_usd, generation_duration_ms,
			status, error_message, generated_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.TenantID, r.AuditID,
		r.Provider, r.Model, nullString(r.PromptTemplate),
		nullString(r.ExecutiveSummary), nullString(r.PrioritizedActions), nullString(r.QuickWins),
		nullString(r.RisksDependencies), nullString(r.LongTermRecommendations),
		r.TokensInput, r.TokensOutput, r.TokensTotal, r.CostUSD, r.GenerationDurationMS,
		string(r.Status), nullString(r.ErrorMessage), nullTime(r.GeneratedAt), r.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrReportExists
		}
		return fmt.Errorf("failed to insert AI report: %w", err)
	}
	return nil
}

// GetAIReport fetches the audit's AI report, or ErrNotFound when none was
// generated.
func (s *Store) GetAIReport(tenantID, auditID string) (*audit.AIReport, error) {
	row := s.db.QueryRow(`
		SELECT
			id, tenant_id, audit_id,
			provider, model, COALESCE(prompt_template, ''),
			COALESCE(executive_summary, ''), COALESCE(prioritized_actions, ''), COALESCE(quick_wins, ''),
			COALESCE(risks_dependencies, ''), COALESCE(long_term_recommendations, ''),
			COALESCE(tokens_input, 0), COALESCE(tokens_output, 0), COALESCE(tokens_total, 0),
			COALESCE(cost_usd, 0), COALESCE(generation_duration_ms, 0),
			status, COALESCE(error_message, ''), generated_at, created_at
		FROM seo_ai_reports
		WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)

	var r audit.AIReport
	var status string
	var generatedAt sql.NullTime

	err := row.Scan(
		&r.ID, &r.TenantID, &r.AuditID,
		&r.Provider, &r.Model, &r.PromptTemplate,
		&r.ExecutiveSummary, &r.PrioritizedActions, &r.QuickWins,
		&r.RisksDependencies, &r.LongTermRecommendations,
		&r.TokensInput, &r.TokensOutput, &r.TokensTotal,
		&r.CostUSD, &r.GenerationDurationMS,
		&status, &r.ErrorMessage, &generatedAt, &r.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan AI report: %w", err)
	}

	r.Status = audit.ReportStatus(status)
	r.GeneratedAt = timePtr(generatedAt)
	return &r, nil
}
