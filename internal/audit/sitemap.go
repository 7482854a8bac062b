package audit

import "time"

// SitemapType distinguishes sitemap index files from regular sitemaps.
type SitemapType string

// Sitemap kinds.
const (
	SitemapIndex   SitemapType = "index"
	SitemapRegular SitemapType = "regular"
)

// Sitemap records one discovered sitemap or sitemap-index file and its
// validation outcome. EntriesCount == ValidEntries + InvalidEntries is an
// invariant the sitemap parser maintains.
type Sitemap struct {
	ID       string
	TenantID string
	AuditID  string

	URL     string
	URLHash string
	Type    SitemapType

	EntriesCount   int
	ValidEntries   int
	InvalidEntries int

	LastModified *time.Time
	StatusCode   int
	IsValidXML   bool
	ParseErrors  []string
	// DiscoveredURLs is a bounded sample of the URLs found, kept for preview.
	DiscoveredURLs []string

	CreatedAt time.Time
}

// IsIndex reports whether this is a sitemap of sitemaps.
func (s *Sitemap) IsIndex() bool { return s.Type == SitemapIndex }

// HasErrors reports whether the file failed XML validation or produced
// parse errors.
func (s *Sitemap) HasErrors() bool {
	return !s.IsValidXML || len(s.ParseErrors) > 0
}
