package audit

import "time"

// Severity is the weight class of a detected issue.
type Severity string

// Issue severities. There are exactly three.
const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
)

// ValidSeverity reports whether s is one of the three enumerated severities.
func ValidSeverity(s Severity) bool {
	return s == SeverityError || s == SeverityWarn || s == SeverityInfo
}

// Issue codes emitted by the analyzer. Categories are open-ended strings;
// codes are the stable taxonomy keys.
const (
	CodeTitleMissing           = "TITLE_MISSING"
	CodeTitleTooLong           = "TITLE_TOO_LONG"
	CodeMetaDescriptionMissing = "META_DESCRIPTION_MISSING"
	CodeMetaDescriptionTooLong = "META_DESCRIPTION_TOO_LONG"
	CodeH1Missing              = "H1_MISSING"
	CodeMultipleH1             = "MULTIPLE_H1"
	CodeHTTP4xx                = "HTTP_4XX"
	CodeHTTP5xx                = "HTTP_5XX"
	CodeFetchFailed            = "HTTP_FETCH_FAILED"
	CodeNotIndexable           = "PAGE_NOT_INDEXABLE"
	CodeCanonicalMismatch      = "CANONICAL_MISMATCH"
	CodePageTooLarge           = "PAGE_TOO_LARGE"
	CodeSlowPage               = "SLOW_PAGE"
	CodeImageMissingAlt        = "IMAGE_MISSING_ALT"
	CodeNoindexInSitemap       = "NOINDEX_IN_SITEMAP"
	CodeOrphanPage             = "ORPHAN_PAGE"
	CodeBrokenInternalLink     = "BROKEN_INTERNAL_LINK"
	CodeBrokenImage            = "BROKEN_IMAGE"
	CodeSitemapParseError      = "SITEMAP_PARSE_ERROR"
)

// Issue is a detected problem scoped to an audit and optionally to one page
// (PageID empty for audit-global findings). Issues are independent rows per
// audit; no deduplication happens across audits.
type Issue struct {
	ID       string
	TenantID string
	AuditID  string
	PageID   string

	Code     string
	Severity Severity
	Category string
	Message  string
	// Evidence carries technical details as a JSON document: offending
	// URLs, snippets, measured values.
	Evidence map[string]any

	OccurrenceCount int
	FirstDetectedAt time.Time
	LastDetectedAt  *time.Time

	CreatedAt time.Time
}

// IsCritical reports whether the issue has ERROR severity.
func (i *Issue) IsCritical() bool {
	return i.Severity == SeverityError
}

// SeverityClass maps the severity to a presentation class.
func (i *Issue) SeverityClass() string {
	switch i.Severity {
	case SeverityError:
		return "danger"
	case SeverityWarn:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "secondary"
	}
}
