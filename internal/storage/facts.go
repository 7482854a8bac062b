package storage

import (
	"database/sql"
	"fmt"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// SavePages inserts a batch of page fact records in one transaction.
// IDs are assigned to the passed structs. Pages are write-once: there is
// no update path.
func (s *Store) SavePages(pages []*audit.Page) error {
	if len(pages) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO seo_pages (
			id, tenant_id, audit_id, url, url_hash,
			status_code, load_time_ms, size_bytes, content_type, depth, content_hash,
			title, meta_description, meta_robots, canonical, h1, h2_first,
			og_title, og_description, og_image, og_type,
			twitter_card, twitter_title, twitter_description, twitter_image,
			schema_types, hreflang_alternates,
			internal_links_count, external_links_count, images_count, css_count, js_count,
			indexability_reasons, in_sitemap, crawled_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, p := range pages {
		if p.ID == "" {
			p.ID = newID()
		}
		if p.URLHash == "" {
			p.URLHash = audit.HashURL(p.URL)
		}

		schemaTypes, err := marshalJSON(p.SchemaTypes)
		if err != nil {
			return err
		}
		hreflang, err := marshalJSON(p.HreflangAlternates)
		if err != nil {
			return err
		}
		reasons, err := marshalJSON(p.IndexabilityReasons)
		if err != nil {
			return err
		}

		if _, err := stmt.Exec(
			p.ID, p.TenantID, p.AuditID, p.URL, p.URLHash,
			p.StatusCode, p.LoadTimeMS, p.SizeBytes, nullString(p.ContentType), p.Depth, nullString(p.ContentHash),
			nullString(p.Title), nullString(p.MetaDescription), nullString(p.MetaRobots), nullString(p.Canonical), nullString(p.H1), nullString(p.H2First),
			nullString(p.OGTitle), nullString(p.OGDescription), nullString(p.OGImage), nullString(p.OGType),
			nullString(p.TwitterCard), nullString(p.TwitterTitle), nullString(p.TwitterDescription), nullString(p.TwitterImage),
			schemaTypes, hreflang,
			p.InternalLinksCount, p.ExternalLinksCount, p.ImagesCount, p.CSSCount, p.JSCount,
			reasons, p.InSitemap, p.CrawledAt,
		); err != nil {
			return fmt.Errorf("failed to insert page %s: %w", p.URL, err)
		}
	}

	return tx.Commit()
}

// SaveLinks inserts a batch of link edges in one transaction.
func (s *Store) SaveLinks(links []*audit.Link) error {
	if len(links) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO seo_links (
			id, tenant_id, audit_id, from_page_id,
			to_url, to_url_hash, to_page_id, type,
			anchor_text, rel, nofollow, position,
			target_status_code, is_broken
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare link insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range links {
		if l.ID == "" {
			l.ID = newID()
		}
		if l.ToURLHash == "" {
			l.ToURLHash = audit.HashURL(l.ToURL)
		}

		var targetStatus sql.NullInt64
		if l.TargetStatusCode != 0 {
			targetStatus = sql.NullInt64{Int64: int64(l.TargetStatusCode), Valid: true}
		}

		if _, err := stmt.Exec(
			l.ID, l.TenantID, l.AuditID, l.FromPageID,
			l.ToURL, l.ToURLHash, nullString(l.ToPageID), string(l.Type),
			nullString(l.AnchorText), nullString(l.Rel), l.Nofollow, string(l.Position),
			targetStatus, l.IsBroken,
		); err != nil {
			return fmt.Errorf("failed to insert link to %s: %w", l.ToURL, err)
		}
	}

	return tx.Commit()
}

// SaveResources inserts a batch of page sub-resources in one transaction.
func (s *Store) SaveResources(resources []*audit.Resource) error {
	if len(resources) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO seo_resources (
			id, tenant_id, audit_id, page_id,
			url, url_hash, type,
			status_code, size_bytes, load_time_ms,
			alt, has_dimensions, is_broken
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare resource insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range resources {
		if r.ID == "" {
			r.ID = newID()
		}
		if r.URLHash == "" {
			r.URLHash = audit.HashURL(r.URL)
		}

		var status sql.NullInt64
		if r.StatusCode != 0 {
			status = sql.NullInt64{Int64: int64(r.StatusCode), Valid: true}
		}

		if _, err := stmt.Exec(
			r.ID, r.TenantID, r.AuditID, r.PageID,
			r.URL, r.URLHash, string(r.Type),
			status, r.SizeBytes, r.LoadTimeMS,
			nullString(r.Alt), r.HasDimensions, r.IsBroken,
		); err != nil {
			return fmt.Errorf("failed to insert resource %s: %w", r.URL, err)
		}
	}

	return tx.Commit()
}

// SaveIssues inserts a batch of detected issues in one transaction.
func (s *Store) SaveIssues(issues []*audit.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO seo_issues (
			id, tenant_id, audit_id, page_id,
			issue_code, severity, category, message, evidence,
			occurrence_count, first_detected_at, last_detected_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare issue insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, i := range issues {
		if i.ID == "" {
			i.ID = newID()
		}
		if i.OccurrenceCount < 1 {
			i.OccurrenceCount = 1
		}

		evidence, err := marshalJSON(i.Evidence)
		if err != nil {
			return err
		}

		if _, err := stmt.Exec(
			i.ID, i.TenantID, i.AuditID, nullString(i.PageID),
			i.Code, string(i.Severity), nullString(i.Category), i.Message, evidence,
			i.OccurrenceCount, i.FirstDetectedAt, nullTime(i.LastDetectedAt),
		); err != nil {
			return fmt.Errorf("failed to insert issue %s: %w", i.Code, err)
		}
	}

	return tx.Commit()
}

// SaveSitemaps inserts a batch of discovered sitemap records.
func (s *Store) SaveSitemaps(sitemaps []*audit.Sitemap) error {
	if len(sitemaps) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO seo_sitemaps (
			id, tenant_id, audit_id,
			url, url_hash, type,
			entries_count, valid_entries, invalid_entries,
			last_modified, status_code, is_valid_xml, parse_errors, discovered_urls
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sitemap insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, sm := range sitemaps {
		if sm.ID == "" {
			sm.ID = newID()
		}
		if sm.URLHash == "" {
			sm.URLHash = audit.HashURL(sm.URL)
		}

		parseErrors, err := marshalJSON(sm.ParseErrors)
		if err != nil {
			return err
		}
		discovered, err := marshalJSON(sm.DiscoveredURLs)
		if err != nil {
			return err
		}

		var status sql.NullInt64
		if sm.StatusCode != 0 {
			status = sql.NullInt64{Int64: int64(sm.StatusCode), Valid: true}
		}

		if _, err := stmt.Exec(
			sm.ID, sm.TenantID, sm.AuditID,
			sm.URL, sm.URLHash, string(sm.Type),
			sm.EntriesCount, sm.ValidEntries, sm.InvalidEntries,
			nullTime(sm.LastModified), status, sm.IsValidXML, parseErrors, discovered,
		); err != nil {
			return fmt.Errorf("failed to insert sitemap %s: %w", sm.URL, err)
		}
	}

	return tx.Commit()
}

// ListPages returns the audit's page fact records ordered by depth then URL.
func (s *Store) ListPages(tenantID, auditID string) ([]*audit.Page, error) {
	rows, err := s.db.Query(`
		SELECT
			id, tenant_id, audit_id, url, url_hash,
			status_code, COALESCE(load_time_ms, 0), COALESCE(size_bytes, 0),
			COALESCE(content_type, ''), depth, COALESCE(content_hash, ''),
			COALESCE(title, ''), COALESCE(meta_description, ''), COALESCE(meta_robots, ''),
			COALESCE(canonical, ''), COALESCE(h1, ''), COALESCE(h2_first, ''),
			COALESCE(og_title, ''), COALESCE(og_description, ''), COALESCE(og_image, ''), COALESCE(og_type, ''),
			COALESCE(twitter_card, ''), COALESCE(twitter_title, ''), COALESCE(twitter_description, ''), COALESCE(twitter_image, ''),
			schema_types, hreflang_alternates,
			internal_links_count, external_links_count, images_count, css_count, js_count,
			indexability_reasons, in_sitemap, crawled_at, created_at
		FROM seo_pages
		WHERE audit_id = ? AND tenant_id = ?
		ORDER BY depth, url
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*audit.Page
	for rows.Next() {
		var p audit.Page
		var schemaTypes, hreflang, reasons sql.NullString
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.AuditID, &p.URL, &p.URLHash,
			&p.StatusCode, &p.LoadTimeMS, &p.SizeBytes,
			&p.ContentType, &p.Depth, &p.ContentHash,
			&p.Title, &p.MetaDescription, &p.MetaRobots,
			&p.Canonical, &p.H1, &p.H2First,
			&p.OGTitle, &p.OGDescription, &p.OGImage, &p.OGType,
			&p.TwitterCard, &p.TwitterTitle, &p.TwitterDescription, &p.TwitterImage,
			&schemaTypes, &hreflang,
			&p.InternalLinksCount, &p.ExternalLinksCount, &p.ImagesCount, &p.CSSCount, &p.JSCount,
			&reasons, &p.InSitemap, &p.CrawledAt, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.SchemaTypes = unmarshalStrings(schemaTypes)
		p.HreflangAlternates = unmarshalStrings(hreflang)
		p.IndexabilityReasons = unmarshalStrings(reasons)
		pages = append(pages, &p)
	}
	return pages, rows.Err()
}

// ListLinks returns the audit's link edges.
func (s *Store) ListLinks(tenantID, auditID string) ([]*audit.Link, error) {
	rows, err := s.db.Query(`
		SELECT
			id, tenant_id, audit_id, from_page_id,
			to_url, to_url_hash, COALESCE(to_page_id, ''), type,
			COALESCE(anchor_text, ''), COALESCE(rel, ''), nofollow, position,
			COALESCE(target_status_code, 0), is_broken, created_at
		FROM seo_links
		WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []*audit.Link
	for rows.Next() {
		var l audit.Link
		var typ, position string
		if err := rows.Scan(
			&l.ID, &l.TenantID, &l.AuditID, &l.FromPageID,
			&l.ToURL, &l.ToURLHash, &l.ToPageID, &typ,
			&l.AnchorText, &l.Rel, &l.Nofollow, &position,
			&l.TargetStatusCode, &l.IsBroken, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		l.Type = audit.LinkType(typ)
		l.Position = audit.LinkPosition(position)
		links = append(links, &l)
	}
	return links, rows.Err()
}

// ListResources returns the audit's sub-resource records.
func (s *Store) ListResources(tenantID, auditID string) ([]*audit.Resource, error) {
	rows, err := s.db.Query(`
		SELECT
			id, tenant_id, audit_id, page_id,
			url, url_hash, type,
			COALESCE(status_code, 0), COALESCE(size_bytes, 0), COALESCE(load_time_ms, 0),
			COALESCE(alt, ''), has_dimensions, is_broken, created_at
		FROM seo_resources
		WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query resources: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var resources []*audit.Resource
	for rows.Next() {
		var r audit.Resource
		var typ string
		if err := rows.Scan(
			&r.ID, &r.TenantID, &r.AuditID, &r.PageID,
			&r.URL, &r.URLHash, &typ,
			&r.StatusCode, &r.SizeBytes, &r.LoadTimeMS,
			&r.Alt, &r.HasDimensions, &r.IsBroken, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		r.Type = audit.ResourceType(typ)
		resources = append(resources, &r)
	}
	return resources, rows.Err()
}

// ListIssues returns the audit's issues, most severe first.
func (s *Store) ListIssues(tenantID, auditID string) ([]*audit.Issue, error) {
	rows, err := s.db.Query(`
		SELECT
			id, tenant_id, audit_id, COALESCE(page_id, ''),
			issue_code, severity, COALESCE(category, ''), message, evidence,
			occurrence_count, first_detected_at, last_detected_at, created_at
		FROM seo_issues
		WHERE audit_id = ? AND tenant_id = ?
		ORDER BY CASE severity WHEN 'ERROR' THEN 0 WHEN 'WARN' THEN 1 ELSE 2 END, issue_code
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*audit.Issue
	for rows.Next() {
		var i audit.Issue
		var sev string
		var evidence sql.NullString
		var lastDetected sql.NullTime
		if err := rows.Scan(
			&i.ID, &i.TenantID, &i.AuditID, &i.PageID,
			&i.Code, &sev, &i.Category, &i.Message, &evidence,
			&i.OccurrenceCount, &i.FirstDetectedAt, &lastDetected, &i.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		i.Severity = audit.Severity(sev)
		i.Evidence = unmarshalMap(evidence)
		i.LastDetectedAt = timePtr(lastDetected)
		issues = append(issues, &i)
	}
	return issues, rows.Err()
}

// ListSitemaps returns the audit's discovered sitemap records.
func (s *Store) ListSitemaps(tenantID, auditID string) ([]*audit.Sitemap, error) {
	rows, err := s.db.Query(`
		SELECT
			id, tenant_id, audit_id,
			url, url_hash, type,
			entries_count, valid_entries, invalid_entries,
			last_modified, COALESCE(status_code, 0), is_valid_xml, parse_errors, discovered_urls,
			created_at
		FROM seo_sitemaps
		WHERE audit_id = ? AND tenant_id = ?
	`, auditID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemaps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sitemaps []*audit.Sitemap
	for rows.Next() {
		var sm audit.Sitemap
		var typ string
		var lastModified sql.NullTime
		var parseErrors, discovered sql.NullString
		if err := rows.Scan(
			&sm.ID, &sm.TenantID, &sm.AuditID,
			&sm.URL, &sm.URLHash, &typ,
			&sm.EntriesCount, &sm.ValidEntries, &sm.InvalidEntries,
			&lastModified, &sm.StatusCode, &sm.IsValidXML, &parseErrors, &discovered,
			&sm.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sitemap: %w", err)
		}
		sm.Type = audit.SitemapType(typ)
		sm.LastModified = timePtr(lastModified)
		sm.ParseErrors = unmarshalStrings(parseErrors)
		sm.DiscoveredURLs = unmarshalStrings(discovered)
		sitemaps = append(sitemaps, &sm)
	}
	return sitemaps, rows.Err()
}
