package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// StatusType classes for HTTP status codes.
const (
	StatusTypeSuccess     = "success"
	StatusTypeRedirect    = "redirect"
	StatusTypeClientError = "client_error"
	StatusTypeServerError = "server_error"
	StatusTypeUnknown     = "unknown"
)

// Page is one page fetch result within an audit. Pages are write-once fact
// records: they are inserted during the crawl and never mutated afterwards.
// A page is identified by (audit_id, url_hash); the schema enforces the
// uniqueness, the crawler's frontier avoids the conflict.
//
// A fetch that failed before producing an HTTP response (DNS error, timeout)
// is still recorded, with StatusCode 0.
type Page struct {
	ID       string
	TenantID string
	AuditID  string

	URL     string
	URLHash string

	StatusCode  int
	LoadTimeMS  int
	SizeBytes   int
	ContentType string
	// Depth is the click depth from the seed URL.
	Depth       int
	ContentHash string

	// Extracted metadata
	Title           string
	MetaDescription string
	MetaRobots      string
	Canonical       string
	H1              string
	H2First         string

	OGTitle       string
	OGDescription string
	OGImage       string
	OGType        string

	TwitterCard        string
	TwitterTitle       string
	TwitterDescription string
	TwitterImage       string

	SchemaTypes        []string
	HreflangAlternates []string

	InternalLinksCount int
	ExternalLinksCount int
	ImagesCount        int
	CSSCount           int
	JSCount            int

	// IndexabilityReasons holds blocking signal names such as noindex-meta,
	// blocked-robots or canonical-mismatch. A page is indexable iff the
	// list is empty.
	IndexabilityReasons []string
	InSitemap           bool

	CrawledAt time.Time
	CreatedAt time.Time
}

// Indexable reports whether the page carries no indexability-blocking signal.
func (p *Page) Indexable() bool {
	return len(p.IndexabilityReasons) == 0
}

// HasErrors reports whether the fetch returned a 4xx/5xx status.
func (p *Page) HasErrors() bool {
	return p.StatusCode >= 400
}

// IsSuccess reports whether the fetch returned 200.
func (p *Page) IsSuccess() bool {
	return p.StatusCode == 200
}

// StatusType classifies the HTTP status code. StatusCode 0 (fetch failure)
// classifies as unknown.
func (p *Page) StatusType() string {
	return ClassifyStatus(p.StatusCode)
}

// ClassifyStatus maps an HTTP status code to a coarse class.
func ClassifyStatus(code int) string {
	switch {
	case code >= 500:
		return StatusTypeServerError
	case code >= 400:
		return StatusTypeClientError
	case code >= 300:
		return StatusTypeRedirect
	case code >= 200:
		return StatusTypeSuccess
	default:
		return StatusTypeUnknown
	}
}

// HashURL returns the canonical hash used for page and link dedup lookups.
func HashURL(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}
