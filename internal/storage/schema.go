package storage

const schemaSQL = `
-- Durable crawl configuration. Spawns audits over time. Soft-deleted.
CREATE TABLE IF NOT EXISTS seo_projects (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    name TEXT NOT NULL,
    domain TEXT NOT NULL,
    description TEXT,

    -- Scope
    include_subdomains INTEGER NOT NULL DEFAULT 0,
    scope_path TEXT,
    include_patterns TEXT,          -- JSON array
    exclude_patterns TEXT,          -- JSON array

    -- Authentication
    auth_type TEXT NOT NULL DEFAULT 'none' CHECK (auth_type IN ('none', 'basic', 'digest', 'cookie')),
    auth_username TEXT,
    auth_password TEXT,
    auth_cookie_header TEXT,

    -- URL parameters
    param_whitelist TEXT,           -- JSON array
    param_blacklist TEXT,           -- JSON array
    normalize_param_order INTEGER NOT NULL DEFAULT 1,

    -- Crawl settings
    user_agent TEXT,
    obey_robots INTEGER NOT NULL DEFAULT 1,
    max_concurrency INTEGER NOT NULL DEFAULT 8,
    delay_ms INTEGER NOT NULL DEFAULT 300,
    timeout_seconds INTEGER NOT NULL DEFAULT 30,
    max_pages INTEGER NOT NULL DEFAULT 10000,
    max_depth INTEGER NOT NULL DEFAULT 10,

    -- Scheduling
    recurring_schedule TEXT NOT NULL DEFAULT 'none' CHECK (recurring_schedule IN ('none', 'daily', 'weekly', 'monthly')),
    last_scheduled_at DATETIME,

    is_active INTEGER NOT NULL DEFAULT 1,
    last_audit_at DATETIME,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_projects_tenant ON seo_projects(tenant_id);
CREATE INDEX IF NOT EXISTS idx_projects_domain ON seo_projects(domain);
CREATE INDEX IF NOT EXISTS idx_projects_schedule ON seo_projects(recurring_schedule);

-- One crawl execution. Counters stay zero until finalization; the status
-- transition running -> completed/failed is the single-writer point.
CREATE TABLE IF NOT EXISTS seo_audits (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    project_id TEXT NOT NULL REFERENCES seo_projects(id) ON DELETE CASCADE,

    status TEXT NOT NULL DEFAULT 'running' CHECK (status IN ('running', 'completed', 'failed')),
    started_at DATETIME NOT NULL,
    finished_at DATETIME,
    duration_seconds INTEGER,

    config_snapshot TEXT,           -- JSON

    pages_crawled INTEGER NOT NULL DEFAULT 0,
    pages_indexable INTEGER NOT NULL DEFAULT 0,
    pages_non_indexable INTEGER NOT NULL DEFAULT 0,
    orphan_pages INTEGER NOT NULL DEFAULT 0,

    issues_total INTEGER NOT NULL DEFAULT 0,
    issues_error INTEGER NOT NULL DEFAULT 0,
    issues_warn INTEGER NOT NULL DEFAULT 0,
    issues_info INTEGER NOT NULL DEFAULT 0,

    broken_internal_links INTEGER NOT NULL DEFAULT 0,
    broken_external_links INTEGER NOT NULL DEFAULT 0,
    broken_images INTEGER NOT NULL DEFAULT 0,

    avg_load_time_ms INTEGER,
    avg_page_size_bytes INTEGER,
    avg_depth REAL,

    health_score REAL,
    health_score_previous REAL,
    health_score_delta REAL,

    sitemap_entries_found INTEGER NOT NULL DEFAULT 0,
    sitemap_entries_valid INTEGER NOT NULL DEFAULT 0,

    error_message TEXT,
    error_trace TEXT,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_audits_tenant ON seo_audits(tenant_id);
CREATE INDEX IF NOT EXISTS idx_audits_project ON seo_audits(project_id, created_at);
CREATE INDEX IF NOT EXISTS idx_audits_status ON seo_audits(status);

-- Write-once page fact records. One row per URL per audit.
CREATE TABLE IF NOT EXISTS seo_pages (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL REFERENCES seo_audits(id) ON DELETE CASCADE,

    url TEXT NOT NULL,
    url_hash TEXT NOT NULL,

    status_code INTEGER NOT NULL,   -- 0 when the fetch itself failed
    load_time_ms INTEGER,
    size_bytes INTEGER,
    content_type TEXT,
    depth INTEGER NOT NULL DEFAULT 0,
    content_hash TEXT,

    title TEXT,
    meta_description TEXT,
    meta_robots TEXT,
    canonical TEXT,
    h1 TEXT,
    h2_first TEXT,

    og_title TEXT,
    og_description TEXT,
    og_image TEXT,
    og_type TEXT,

    twitter_card TEXT,
    twitter_title TEXT,
    twitter_description TEXT,
    twitter_image TEXT,

    schema_types TEXT,              -- JSON array
    hreflang_alternates TEXT,       -- JSON array

    internal_links_count INTEGER NOT NULL DEFAULT 0,
    external_links_count INTEGER NOT NULL DEFAULT 0,
    images_count INTEGER NOT NULL DEFAULT 0,
    css_count INTEGER NOT NULL DEFAULT 0,
    js_count INTEGER NOT NULL DEFAULT 0,

    indexability_reasons TEXT,      -- JSON array; empty/null means indexable
    in_sitemap INTEGER NOT NULL DEFAULT 0,

    crawled_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,

    UNIQUE(audit_id, url_hash)
);

CREATE INDEX IF NOT EXISTS idx_pages_tenant ON seo_pages(tenant_id);
CREATE INDEX IF NOT EXISTS idx_pages_audit_status ON seo_pages(audit_id, status_code);

-- Directed link edges. to_page_id is a lookup convenience, not ownership.
CREATE TABLE IF NOT EXISTS seo_links (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL REFERENCES seo_audits(id) ON DELETE CASCADE,
    from_page_id TEXT NOT NULL REFERENCES seo_pages(id) ON DELETE CASCADE,

    to_url TEXT NOT NULL,
    to_url_hash TEXT NOT NULL,
    to_page_id TEXT REFERENCES seo_pages(id) ON DELETE SET NULL,
    type TEXT NOT NULL DEFAULT 'internal' CHECK (type IN ('internal', 'external', 'mailto', 'tel')),

    anchor_text TEXT,
    rel TEXT,
    nofollow INTEGER NOT NULL DEFAULT 0,
    position TEXT NOT NULL DEFAULT 'other' CHECK (position IN ('navigation', 'content', 'footer', 'sidebar', 'other')),

    target_status_code INTEGER,
    is_broken INTEGER NOT NULL DEFAULT 0,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_links_tenant ON seo_links(tenant_id);
CREATE INDEX IF NOT EXISTS idx_links_audit_type ON seo_links(audit_id, type);
CREATE INDEX IF NOT EXISTS idx_links_audit_broken ON seo_links(audit_id, is_broken);
CREATE INDEX IF NOT EXISTS idx_links_to_hash ON seo_links(audit_id, to_url_hash);

-- Page sub-resources (images, css, js, fonts).
CREATE TABLE IF NOT EXISTS seo_resources (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL REFERENCES seo_audits(id) ON DELETE CASCADE,
    page_id TEXT NOT NULL REFERENCES seo_pages(id) ON DELETE CASCADE,

    url TEXT NOT NULL,
    url_hash TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'other' CHECK (type IN ('css', 'js', 'image', 'font', 'video', 'other')),

    status_code INTEGER,
    size_bytes INTEGER,
    load_time_ms INTEGER,

    alt TEXT,
    has_dimensions INTEGER NOT NULL DEFAULT 0,
    is_broken INTEGER NOT NULL DEFAULT 0,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_resources_tenant ON seo_resources(tenant_id);
CREATE INDEX IF NOT EXISTS idx_resources_audit_type ON seo_resources(audit_id, type);

-- Detected problems. page_id is null for audit-global findings.
CREATE TABLE IF NOT EXISTS seo_issues (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL REFERENCES seo_audits(id) ON DELETE CASCADE,
    page_id TEXT REFERENCES seo_pages(id) ON DELETE SET NULL,

    issue_code TEXT NOT NULL,
    severity TEXT NOT NULL CHECK (severity IN ('ERROR', 'WARN', 'INFO')),
    category TEXT,
    message TEXT NOT NULL,
    evidence TEXT,                  -- JSON object

    occurrence_count INTEGER NOT NULL DEFAULT 1 CHECK (occurrence_count >= 1),
    first_detected_at DATETIME NOT NULL,
    last_detected_at DATETIME,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_issues_tenant ON seo_issues(tenant_id);
CREATE INDEX IF NOT EXISTS idx_issues_audit_severity ON seo_issues(audit_id, severity);
CREATE INDEX IF NOT EXISTS idx_issues_audit_code ON seo_issues(audit_id, issue_code);

-- Discovered sitemap files and their validation outcome.
CREATE TABLE IF NOT EXISTS seo_sitemaps (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL REFERENCES seo_audits(id) ON DELETE CASCADE,

    url TEXT NOT NULL,
    url_hash TEXT NOT NULL,
    type TEXT NOT NULL DEFAULT 'regular' CHECK (type IN ('index', 'regular')),

    entries_count INTEGER NOT NULL DEFAULT 0,
    valid_entries INTEGER NOT NULL DEFAULT 0,
    invalid_entries INTEGER NOT NULL DEFAULT 0,

    last_modified DATETIME,
    status_code INTEGER,
    is_valid_xml INTEGER NOT NULL DEFAULT 1,
    parse_errors TEXT,              -- JSON array
    discovered_urls TEXT,           -- JSON array, bounded sample

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sitemaps_tenant ON seo_sitemaps(tenant_id);
CREATE INDEX IF NOT EXISTS idx_sitemaps_audit ON seo_sitemaps(audit_id, type);

-- LLM narrative report, at most one per audit.
CREATE TABLE IF NOT EXISTS seo_ai_reports (
    id TEXT PRIMARY KEY,
    tenant_id TEXT NOT NULL,
    audit_id TEXT NOT NULL UNIQUE REFERENCES seo_audits(id) ON DELETE CASCADE,

    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    prompt_template TEXT,

    executive_summary TEXT,
    prioritized_actions TEXT,
    quick_wins TEXT,
    risks_dependencies TEXT,
    long_term_recommendations TEXT,

    tokens_input INTEGER,
    tokens_output INTEGER,
    tokens_total INTEGER,
    cost_usd REAL,
    generation_duration_ms INTEGER,

    status TEXT NOT NULL CHECK (status IN ('completed', 'failed')),
    error_message TEXT,
    generated_at DATETIME,

    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_reports_tenant ON seo_ai_reports(tenant_id);
`
