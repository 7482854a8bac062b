// Package audit defines the domain model for SEO audit runs: the durable
// project configuration, the audit lifecycle aggregate, and the fact records
// (pages, links, resources, issues, sitemaps) written during a crawl.
package audit

import (
	"time"
)

// AuthType identifies how the crawler authenticates against the target site.
type AuthType string

// Supported authentication types.
const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
	AuthCookie AuthType = "cookie"
)

// Schedule identifies the recurring audit cadence for a project.
type Schedule string

// Supported recurring schedules.
const (
	ScheduleNone    Schedule = "none"
	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
)

// Project is the durable crawl configuration for one site. It is owned by a
// tenant and spawns Audits over time. All limits are snapshotted into the
// audit at trigger time, so later edits never change what a past run used.
type Project struct {
	ID          string
	TenantID    string
	Name        string
	Domain      string
	Description string

	// Scope
	IncludeSubdomains bool
	ScopePath         string
	IncludePatterns   []string
	ExcludePatterns   []string

	// Authentication
	AuthType         AuthType
	AuthUsername     string
	AuthPassword     string
	AuthCookieHeader string

	// URL parameter handling
	ParamWhitelist      []string
	ParamBlacklist      []string
	NormalizeParamOrder bool

	// Crawl settings
	UserAgent      string
	ObeyRobots     bool
	MaxConcurrency int
	DelayMS        int
	TimeoutSeconds int
	MaxPages       int
	MaxDepth       int

	// Scheduling
	RecurringSchedule Schedule
	LastScheduledAt   *time.Time

	IsActive    bool
	LastAuditAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// HasSchedule reports whether the project has a recurring audit schedule.
func (p *Project) HasSchedule() bool {
	switch p.RecurringSchedule {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
		return true
	}
	return false
}

// HasAuthentication reports whether crawl requests must carry credentials.
// This is a presence check only, not a credential validity check.
func (p *Project) HasAuthentication() bool {
	return p.AuthType != AuthNone && p.AuthType != "" && p.AuthUsername != ""
}

// FullDomainURL returns the https seed URL for the configured domain and
// scope path.
func (p *Project) FullDomainURL() string {
	return "https://" + p.Domain + p.ScopePath
}

// ConfigSnapshot is the frozen copy of a project's crawl configuration taken
// when an audit starts. It is persisted as JSON on the audit row.
type ConfigSnapshot struct {
	Domain              string   `json:"domain"`
	IncludeSubdomains   bool     `json:"include_subdomains"`
	ScopePath           string   `json:"scope_path,omitempty"`
	IncludePatterns     []string `json:"include_patterns,omitempty"`
	ExcludePatterns     []string `json:"exclude_patterns,omitempty"`
	AuthType            AuthType `json:"auth_type"`
	AuthUsername        string   `json:"auth_username,omitempty"`
	AuthCookieHeader    string   `json:"auth_cookie_header,omitempty"`
	ParamWhitelist      []string `json:"param_whitelist,omitempty"`
	ParamBlacklist      []string `json:"param_blacklist,omitempty"`
	NormalizeParamOrder bool     `json:"normalize_param_order"`
	UserAgent           string   `json:"user_agent,omitempty"`
	ObeyRobots          bool     `json:"obey_robots"`
	MaxConcurrency      int      `json:"max_concurrency"`
	DelayMS             int      `json:"delay_ms"`
	TimeoutSeconds      int      `json:"timeout_seconds"`
	MaxPages            int      `json:"max_pages"`
	MaxDepth            int      `json:"max_depth"`
}

// Snapshot returns a deep copy of the project's crawl configuration.
// Credentials other than the username are deliberately excluded: the
// snapshot is a stored record, not a secret store.
func (p *Project) Snapshot() ConfigSnapshot {
	return ConfigSnapshot{
		Domain:              p.Domain,
		IncludeSubdomains:   p.IncludeSubdomains,
		ScopePath:           p.ScopePath,
		IncludePatterns:     append([]string(nil), p.IncludePatterns...),
		ExcludePatterns:     append([]string(nil), p.ExcludePatterns...),
		AuthType:            p.AuthType,
		AuthUsername:        p.AuthUsername,
		AuthCookieHeader:    p.AuthCookieHeader,
		ParamWhitelist:      append([]string(nil), p.ParamWhitelist...),
		ParamBlacklist:      append([]string(nil), p.ParamBlacklist...),
		NormalizeParamOrder: p.NormalizeParamOrder,
		UserAgent:           p.UserAgent,
		ObeyRobots:          p.ObeyRobots,
		MaxConcurrency:      p.MaxConcurrency,
		DelayMS:             p.DelayMS,
		TimeoutSeconds:      p.TimeoutSeconds,
		MaxPages:            p.MaxPages,
		MaxDepth:            p.MaxDepth,
	}
}
