package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
)

const projectColumns = `
	id, tenant_id, name, domain, description,
	include_subdomains, scope_path, include_patterns, exclude_patterns,
	auth_type, auth_username, auth_password, auth_cookie_header,
	param_whitelist, param_blacklist, normalize_param_order,
	user_agent, obey_robots, max_concurrency, delay_ms, timeout_seconds,
	max_pages, max_depth,
	recurring_schedule, last_scheduled_at,
	is_active, last_audit_at,
	created_at, updated_at`

// CreateProject inserts a new project and assigns its ID.
func (s *Store) CreateProject(p *audit.Project) error {
	if p.ID == "" {
		p.ID = newID()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	includes, err := marshalJSON(p.IncludePatterns)
	if err != nil {
		return err
	}
	excludes, err := marshalJSON(p.ExcludePatterns)
	if err != nil {
		return err
	}
	whitelist, err := marshalJSON(p.ParamWhitelist)
	if err != nil {
		return err
	}
	blacklist, err := marshalJSON(p.ParamBlacklist)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO seo_projects (
			id, tenant_id, name, domain, description,
			include_subdomains, scope_path, include_patterns, exclude_patterns,
			auth_type, auth_username, auth_password, auth_cookie_header,
			param_whitelist, param_blacklist, normalize_param_order,
			user_agent, obey_robots, max_concurrency, delay_ms, timeout_seconds,
			max_pages, max_depth,
			recurring_schedule, last_scheduled_at,
			is_active, last_audit_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID, p.TenantID, p.Name, p.Domain, nullString(p.Description),
		p.IncludeSubdomains, nullString(p.ScopePath), includes, excludes,
		string(p.AuthType), nullString(p.AuthUsername), nullString(p.AuthPassword), nullString(p.AuthCookieHeader),
		whitelist, blacklist, p.NormalizeParamOrder,
		nullString(p.UserAgent), p.ObeyRobots, p.MaxConcurrency, p.DelayMS, p.TimeoutSeconds,
		p.MaxPages, p.MaxDepth,
		string(p.RecurringSchedule), nullTime(p.LastScheduledAt),
		p.IsActive, nullTime(p.LastAuditAt),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

// UpdateProject persists configuration edits to an existing project.
func (s *Store) UpdateProject(p *audit.Project) error {
	includes, err := marshalJSON(p.IncludePatterns)
	if err != nil {
		return err
	}
	excludes, err := marshalJSON(p.ExcludePatterns)
	if err != nil {
		return err
	}
	whitelist, err := marshalJSON(p.ParamWhitelist)
	if err != nil {
		return err
	}
	blacklist, err := marshalJSON(p.ParamBlacklist)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		UPDATE seo_projects SET
			name = ?, domain = ?, description = ?,
			include_subdomains = ?, scope_path = ?, include_patterns = ?, exclude_patterns = ?,
			auth_type = ?, auth_username = ?, auth_password = ?, auth_cookie_header = ?,
			param_whitelist = ?, param_blacklist = ?, normalize_param_order = ?,
			user_agent = ?, obey_robots = ?, max_concurrency = ?, delay_ms = ?, timeout_seconds = ?,
			max_pages = ?, max_depth = ?,
			recurring_schedule = ?, is_active = ?,
			updated_at = ?
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`,
		p.Name, p.Domain, nullString(p.Description),
		p.IncludeSubdomains, nullString(p.ScopePath), includes, excludes,
		string(p.AuthType), nullString(p.AuthUsername), nullString(p.AuthPassword), nullString(p.AuthCookieHeader),
		whitelist, blacklist, p.NormalizeParamOrder,
		nullString(p.UserAgent), p.ObeyRobots, p.MaxConcurrency, p.DelayMS, p.TimeoutSeconds,
		p.MaxPages, p.MaxDepth,
		string(p.RecurringSchedule), p.IsActive,
		time.Now().UTC(),
		p.ID, p.TenantID,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
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

// GetProject fetches one project by ID for the tenant. Soft-deleted
// projects are not returned.
func (s *Store) GetProject(tenantID, projectID string) (*audit.Project, error) {
	row := s.db.QueryRow(`
		SELECT `+projectColumns+`
		FROM seo_projects
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, projectID, tenantID)
	return scanProject(row)
}

// ListProjects returns all live projects for the tenant, newest first.
func (s *Store) ListProjects(tenantID string) ([]*audit.Project, error) {
	rows, err := s.db.Query(`
		SELECT `+projectColumns+`
		FROM seo_projects
		WHERE tenant_id = ? AND deleted_at IS NULL
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*audit.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListScheduledProjects returns, across all tenants, the active projects
// with a daily, weekly or monthly recurring schedule. Used by the scheduler
// daemon, which runs outside any tenant session.
func (s *Store) ListScheduledProjects() ([]*audit.Project, error) {
	rows, err := s.db.Query(`
		SELECT ` + projectColumns + `
		FROM seo_projects
		WHERE recurring_schedule IN ('daily', 'weekly', 'monthly')
		  AND is_active = 1 AND deleted_at IS NULL
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*audit.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SoftDeleteProject marks the project and all its audits as deleted.
// Rows stay in place; reads exclude them.
func (s *Store) SoftDeleteProject(tenantID, projectID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.Exec(`
		UPDATE seo_projects SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, now, now, projectID, tenantID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(`
		UPDATE seo_audits SET deleted_at = ?, updated_at = ?
		WHERE project_id = ? AND tenant_id = ? AND deleted_at IS NULL
	`, now, now, projectID, tenantID); err != nil {
		return fmt.Errorf("failed to soft-delete project audits: %w", err)
	}

	return tx.Commit()
}

// TouchProjectAudit stamps last_audit_at after an audit run.
func (s *Store) TouchProjectAudit(tenantID, projectID string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE seo_projects SET last_audit_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, at, time.Now().UTC(), projectID, tenantID)
	return err
}

// MarkProjectScheduled stamps last_scheduled_at when the scheduler triggers
// an audit.
func (s *Store) MarkProjectScheduled(tenantID, projectID string, at time.Time) error {
	_, err := s.db.Exec(`
		UPDATE seo_projects SET last_scheduled_at = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`, at, time.Now().UTC(), projectID, tenantID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*audit.Project, error) {
	var p audit.Project
	var description, scopePath, includes, excludes sql.NullString
	var authType, authUsername, authPassword, authCookie sql.NullString
	var whitelist, blacklist, userAgent, schedule sql.NullString
	var lastScheduledAt, lastAuditAt sql.NullTime

	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Domain, &description,
		&p.IncludeSubdomains, &scopePath, &includes, &excludes,
		&authType, &authUsername, &authPassword, &authCookie,
		&whitelist, &blacklist, &p.NormalizeParamOrder,
		&userAgent, &p.ObeyRobots, &p.MaxConcurrency, &p.DelayMS, &p.TimeoutSeconds,
		&p.MaxPages, &p.MaxDepth,
		&schedule, &lastScheduledAt,
		&p.IsActive, &lastAuditAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.Description = description.String
	p.ScopePath = scopePath.String
	p.IncludePatterns = unmarshalStrings(includes)
	p.ExcludePatterns = unmarshalStrings(excludes)
	p.AuthType = audit.AuthType(authType.String)
	p.AuthUsername = authUsername.String
	p.AuthPassword = authPassword.String
	p.AuthCookieHeader = authCookie.String
	p.ParamWhitelist = unmarshalStrings(whitelist)
	p.ParamBlacklist = unmarshalStrings(blacklist)
	p.UserAgent = userAgent.String
	p.RecurringSchedule = audit.Schedule(schedule.String)
	p.LastScheduledAt = timePtr(lastScheduledAt)
	p.LastAuditAt = timePtr(lastAuditAt)

	return &p, nil
}
