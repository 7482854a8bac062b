package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
)

const auditColumns = `
	id, tenant_id, project_id, status, started_at, finished_at, duration_seconds,
	config_snapshot,
	pages_crawled, pages_indexable, pages_non_indexable, orphan_pages,
	issues_total, issues_error, issues_warn, issues_info,
	broken_internal_links, broken_external_links, broken_images,
	avg_load_time_ms, avg_page_size_bytes, avg_depth,
	health_score, health_score_previous, health_score_delta,
	sitemap_entries_found, sitemap_entries_valid,
	error_message, error_trace,
	created_at, updated_at`

// StartAudit creates a new running audit for the project, freezing the
// project configuration into the audit row.
func (s *Store) StartAudit(p *audit.Project) (*audit.Audit, error) {
	a := &audit.Audit{
		ID:        newID(),
		TenantID:  p.TenantID,
		ProjectID: p.ID,
		Status:    audit.StatusRunning,
		StartedAt: time.Now().UTC(),
		Config:    p.Snapshot(),
	}
	a.CreatedAt = a.StartedAt
	a.UpdatedAt = a.StartedAt

	snapshot, err := json.Marshal(a.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config snapshot: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO seo_audits (id, tenant_id, project_id, status, started_at, config_snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.TenantID, a.ProjectID, string(a.Status), a.StartedAt, string(snapshot), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit: %w", err)
	}
	return a, nil
}

// GetAudit fetches one audit by ID for the tenant.
func (s *Store) GetAudit(tenantID, auditID string) (*audit.Audit, error) {
	row := s.db.QueryRow(`
		SELECT `+auditColumns+`
		FROM seo_audits
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, auditID, tenantID)
	return scanAudit(row)
}

// ListAudits returns the project's audits, newest first.
func (s *Store) ListAudits(tenantID, projectID string) ([]*audit.Audit, error) {
	rows, err := s.db.Query(`
		SELECT `+auditColumns+`
		FROM seo_audits
		WHERE project_id = ? AND tenant_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, projectID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var audits []*audit.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}
	return audits, rows.Err()
}

// LatestAudit returns the project's most recent audit by created_at, or
// ErrNotFound when the project has none.
func (s *Store) LatestAudit(tenantID, projectID string) (*audit.Audit, error) {
	row := s.db.QueryRow(`
		SELECT `+auditColumns+`
		FROM seo_audits
		WHERE project_id = ? AND tenant_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, projectID, tenantID)
	return scanAudit(row)
}

// HasRunningAudit reports whether the project currently has an audit in
// the running state. The scheduler uses this to avoid piling up runs.
func (s *Store) HasRunningAudit(tenantID, projectID string) (bool, error) {
	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM seo_audits
		WHERE project_id = ? AND tenant_id = ? AND status = 'running' AND deleted_at IS NULL
	`, projectID, tenantID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check running audits: %w", err)
	}
	return count > 0, nil
}

// FinalizeAudit computes the rollup counters from the audit's fact records
// and transitions the audit from running to completed, all in one
// transaction. The status update is a compare-and-swap: a second finalize
// attempt finds no running row and returns ErrAuditNotRunning, leaving the
// stored values untouched.
func (s *Store) FinalizeAudit(tenantID, auditID string) (*audit.Audit, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var projectID string
	var startedAt time.Time
	err = tx.QueryRow(`
		SELECT project_id, started_at FROM seo_audits
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, auditID, tenantID).Scan(&projectID, &startedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load audit: %w", err)
	}

	rollup, err := computeRollupTx(tx, tenantID, auditID)
	if err != nil {
		return nil, err
	}

	// Previous health score: the most recent earlier audit of the same
	// project that has one.
	var previous sql.NullFloat64
	err = tx.QueryRow(`
		SELECT health_score FROM seo_audits
		WHERE project_id = ? AND tenant_id = ? AND id != ?
		  AND health_score IS NOT NULL AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, projectID, tenantID, auditID).Scan(&previous)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to load previous health score: %w", err)
	}

	var delta sql.NullFloat64
	if previous.Valid {
		delta = sql.NullFloat64{Float64: rollup.HealthScore - previous.Float64, Valid: true}
	}

	now := time.Now().UTC()
	duration := int(now.Sub(startedAt).Seconds())

	res, err := tx.Exec(`
		UPDATE seo_audits SET
			status = 'completed',
			finished_at = ?, duration_seconds = ?,
			pages_crawled = ?, pages_indexable = ?, pages_non_indexable = ?, orphan_pages = ?,
			issues_total = ?, issues_error = ?, issues_warn = ?, issues_info = ?,
			broken_internal_links = ?, broken_external_links = ?, broken_images = ?,
			avg_load_time_ms = ?, avg_page_size_bytes = ?, avg_depth = ?,
			health_score = ?, health_score_previous = ?, health_score_delta = ?,
			sitemap_entries_found = ?, sitemap_entries_valid = ?,
			updated_at = ?
		WHERE id = ? AND tenant_id = ? AND status = 'running'
	`,
		now, duration,
		rollup.PagesCrawled, rollup.PagesIndexable, rollup.PagesNonIndexable, rollup.OrphanPages,
		rollup.IssuesTotal, rollup.IssuesError, rollup.IssuesWarn, rollup.IssuesInfo,
		rollup.BrokenInternalLinks, rollup.BrokenExternalLinks, rollup.BrokenImages,
		rollup.AvgLoadTimeMS, rollup.AvgPageSizeBytes, rollup.AvgDepth,
		rollup.HealthScore, previous, delta,
		rollup.SitemapEntriesFound, rollup.SitemapEntriesValid,
		now,
		auditID, tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAuditNotRunning
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit finalization: %w", err)
	}
	return s.GetAudit(tenantID, auditID)
}

// FailAudit transitions a running audit to failed, recording the error.
// Fact rows written before the failure are preserved; no rollup counters
// are computed. The same compare-and-swap guard applies.
func (s *Store) FailAudit(tenantID, auditID, errorMessage, errorTrace string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE seo_audits SET
			status = 'failed',
			finished_at = ?,
			duration_seconds = CAST((julianday(?) - julianday(started_at)) * 86400 AS INTEGER),
			error_message = ?, error_trace = ?,
			updated_at = ?
		WHERE id = ? AND tenant_id = ? AND status = 'running'
	`, now, now, errorMessage, nullString(errorTrace), now, auditID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to fail audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAuditNotRunning
	}
	return nil
}

// SoftDeleteAudit marks one audit as deleted without touching its project.
func (s *Store) SoftDeleteAudit(tenantID, auditID string) error {
	now := time.Now().UTC()
	res, err := s.db.Exec(`
		UPDATE seo_audits SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, now, now, auditID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAudit hard-deletes one audit. Foreign keys cascade the delete to
// pages, links, resources, issues, sitemaps and the AI report. The owning
// project is untouched.
func (s *Store) DeleteAudit(tenantID, auditID string) error {
	res, err := s.db.Exec(`
		DELETE FROM seo_audits WHERE id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// computeRollupTx loads the audit's fact records inside the finalization
// transaction and derives the counters with the shared pure arithmetic.
func computeRollupTx(tx *sql.Tx, tenantID, auditID string) (audit.Rollup, error) {
	var zero audit.Rollup

	pages, err := loadRollupPages(tx, tenantID, auditID)
	if err != nil {
		return zero, err
	}
	links, err := loadRollupLinks(tx, tenantID, auditID)
	if err != nil {
		return zero, err
	}
	resources, err := loadRollupResources(tx, tenantID, auditID)
	if err != nil {
		return zero, err
	}
	issues, err := loadRollupIssues(tx, tenantID, auditID)
	if err != nil {
		return zero, err
	}
	sitemaps, err := loadRollupSitemaps(tx, tenantID, auditID)
	if err != nil {
		return zero, err
	}

	return audit.ComputeRollup(pages, links, resources, issues, sitemaps), nil
}

func loadRollupPages(tx *sql.Tx, tenantID, auditID string) ([]*audit.Page, error) {
	rows, err := tx.Query(`
		SELECT id, depth, COALESCE(load_time_ms, 0), COALESCE(size_bytes, 0), indexability_reasons
		FROM seo_pages WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages for rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*audit.Page
	for rows.Next() {
		var p audit.Page
		var reasons sql.NullString
		if err := rows.Scan(&p.ID, &p.Depth, &p.LoadTimeMS, &p.SizeBytes, &reasons); err != nil {
			return nil, err
		}
		p.IndexabilityReasons = unmarshalStrings(reasons)
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

func loadRollupLinks(tx *sql.Tx, tenantID, auditID string) ([]*audit.Link, error) {
	rows, err := tx.Query(`
		SELECT from_page_id, COALESCE(to_page_id, ''), type, is_broken
		FROM seo_links WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links for rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []*audit.Link
	for rows.Next() {
		var l audit.Link
		var typ string
		if err := rows.Scan(&l.FromPageID, &l.ToPageID, &typ, &l.IsBroken); err != nil {
			return nil, err
		}
		l.Type = audit.LinkType(typ)
		links = append(links, &l)
	}
	return links, rows.Err()
}

func loadRollupResources(tx *sql.Tx, tenantID, auditID string) ([]*audit.Resource, error) {
	rows, err := tx.Query(`
		SELECT type, is_broken
		FROM seo_resources WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources for rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resources []*audit.Resource
	for rows.Next() {
		var r audit.Resource
		var typ string
		if err := rows.Scan(&typ, &r.IsBroken); err != nil {
			return nil, err
		}
		r.Type = audit.ResourceType(typ)
		resources = append(resources, &r)
	}
	return resources, rows.Err()
}

func loadRollupIssues(tx *sql.Tx, tenantID, auditID string) ([]*audit.Issue, error) {
	rows, err := tx.Query(`
		SELECT severity
		FROM seo_issues WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues for rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*audit.Issue
	for rows.Next() {
		var sev string
		if err := rows.Scan(&sev); err != nil {
			return nil, err
		}
		issues = append(issues, &audit.Issue{Severity: audit.Severity(sev)})
	}
	return issues, rows.Err()
}

func loadRollupSitemaps(tx *sql.Tx, tenantID, auditID string) ([]*audit.Sitemap, error) {
	rows, err := tx.Query(`
		SELECT entries_count, valid_entries, invalid_entries
		FROM seo_sitemaps WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemaps for rollup: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sitemaps []*audit.Sitemap
	for rows.Next() {
		var sm audit.Sitemap
		if err := rows.Scan(&sm.EntriesCount, &sm.ValidEntries, &sm.InvalidEntries); err != nil {
			return nil, err
		}
		sitemaps = append(sitemaps, &sm)
	}
	return sitemaps, rows.Err()
}

func scanAudit(row rowScanner) (*audit.Audit, error) {
	var a audit.Audit
	var status string
	var finishedAt sql.NullTime
	var duration, avgLoad, avgSize sql.NullInt64
	var avgDepth, score, previous, delta sql.NullFloat64
	var snapshot, errMsg, errTrace sql.NullString

	err := row.Scan(
		&a.ID, &a.TenantID, &a.ProjectID, &status, &a.StartedAt, &finishedAt, &duration,
		&snapshot,
		&a.PagesCrawled, &a.PagesIndexable, &a.PagesNonIndexable, &a.OrphanPages,
		&a.IssuesTotal, &a.IssuesError, &a.IssuesWarn, &a.IssuesInfo,
		&a.BrokenInternalLinks, &a.BrokenExternalLinks, &a.BrokenImages,
		&avgLoad, &avgSize, &avgDepth,
		&score, &previous, &delta,
		&a.SitemapEntriesFound, &a.SitemapEntriesValid,
		&errMsg, &errTrace,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit: %w", err)
	}

	a.Status = audit.Status(status)
	a.FinishedAt = timePtr(finishedAt)
	a.DurationSeconds = int(duration.Int64)
	a.AvgLoadTimeMS = int(avgLoad.Int64)
	a.AvgPageSizeBytes = int(avgSize.Int64)
	a.AvgDepth = avgDepth.Float64
	a.HealthScore = floatPtr(score)
	a.HealthScorePrevious = floatPtr(previous)
	a.HealthScoreDelta = floatPtr(delta)
	a.ErrorMessage = errMsg.String
	a.ErrorTrace = errTrace.String

	if snapshot.Valid && snapshot.String != "" {
		if err := json.Unmarshal([]byte(snapshot.String), &a.Config); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config snapshot: %w", err)
		}
	}

	return &a, nil
}
