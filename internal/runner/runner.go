// Package runner orchestrates one audit run end to end: start the audit,
// crawl, finalize or fail, stamp the project, and optionally generate the
// AI report. Both the CLI and the scheduler go through it.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/crawler"
	"github.com/seoaudit/seoaudit/internal/report"
	"github.com/seoaudit/seoaudit/internal/storage"
)

// ErrAuditInProgress is returned when the project already has a running
// audit; concurrent runs for one project are not allowed.
var ErrAuditInProgress = errors.New("project already has a running audit")

const cancelledMessage = "crawl cancelled by operator"

// Runner executes audits against the storage layer.
type Runner struct {
	store     *storage.Store
	generator *report.Generator
	logger    *slog.Logger
}

// New creates a runner. The report generator may be nil when no LLM
// provider is configured; audits then run without narrative reports.
func New(store *storage.Store, generator *report.Generator, logger *slog.Logger) *Runner {
	return &Runner{store: store, generator: generator, logger: logger}
}

// Run executes one audit for the project and returns the finalized audit
// row. A cancelled or crashed crawl yields a failed audit with its partial
// fact records kept; that is a regular outcome, not an error.
func (r *Runner) Run(ctx context.Context, tenantID, projectID string, withReport bool) (*audit.Audit, error) {
	p, err := r.store.GetProject(tenantID, projectID)
	if err != nil {
		return nil, err
	}

	running, err := r.store.HasRunningAudit(tenantID, projectID)
	if err != nil {
		return nil, err
	}
	if running {
		return nil, ErrAuditInProgress
	}

	a, err := r.store.StartAudit(p)
	if err != nil {
		return nil, err
	}
	r.logger.Info("audit started",
		"audit_id", a.ID, "project_id", p.ID, "domain", p.Domain)

	c, err := crawler.New(p, a.ID, r.store, r.logger)
	if err != nil {
		return r.fail(tenantID, a.ID, fmt.Sprintf("invalid crawl configuration: %v", err), "")
	}

	if err := c.Run(ctx); err != nil {
		msg := fmt.Sprintf("crawl failed: %v", err)
		if errors.Is(err, context.Canceled) {
			msg = cancelledMessage
		}
		return r.fail(tenantID, a.ID, msg, err.Error())
	}

	final, err := r.store.FinalizeAudit(tenantID, a.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize audit: %w", err)
	}
	if err := r.store.TouchProjectAudit(tenantID, projectID, *final.FinishedAt); err != nil {
		r.logger.Warn("failed to stamp project last audit time", "error", err)
	}

	r.logger.Info("audit completed",
		"audit_id", final.ID, "pages", final.PagesCrawled,
		"issues", final.IssuesTotal, "health_score", final.HealthScore)

	if withReport && final.IsCompleted() {
		r.generateReport(ctx, final)
	}

	return final, nil
}

// GenerateReport produces the AI report for an already completed audit.
func (r *Runner) GenerateReport(ctx context.Context, tenantID, auditID string) (*audit.AIReport, error) {
	if r.generator == nil {
		return nil, errors.New("no LLM provider configured")
	}

	a, err := r.store.GetAudit(tenantID, auditID)
	if err != nil {
		return nil, err
	}
	if !a.IsCompleted() {
		return nil, fmt.Errorf("audit is %s, reports require a completed audit", a.Status)
	}
	return r.generator.Generate(ctx, a)
}

func (r *Runner) generateReport(ctx context.Context, a *audit.Audit) {
	if r.generator == nil {
		r.logger.Warn("report requested but no LLM provider configured", "audit_id", a.ID)
		return
	}
	if _, err := r.generator.Generate(ctx, a); err != nil {
		r.logger.Error("failed to store AI report", "audit_id", a.ID, "error", err)
	}
}

func (r *Runner) fail(tenantID, auditID, message, trace string) (*audit.Audit, error) {
	r.logger.Warn("audit failed", "audit_id", auditID, "error", message)

	if err := r.store.FailAudit(tenantID, auditID, message, trace); err != nil {
		return nil, fmt.Errorf("failed to mark audit as failed: %w", err)
	}
	return r.store.GetAudit(tenantID, auditID)
}
