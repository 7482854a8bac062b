package crawler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/parser"
)

func newPageID() string { return uuid.NewString() }

// discoverSitemaps runs before the page walk: it collects sitemap URLs
// from robots.txt plus the conventional /sitemap.xml location, fetches
// and validates each one (following index files), and remembers every
// listed page URL so crawled pages can be flagged as in-sitemap.
func (c *Crawler) discoverSitemaps(ctx context.Context, seed string) {
	host, scheme := hostAndScheme(seed)
	if host == "" {
		return
	}

	candidates := c.robots.Sitemaps(ctx, host, scheme)
	candidates = append(candidates, scheme+"://"+host+"/sitemap.xml")

	seen := map[string]bool{}
	fetched := 0

	var walk func(sitemapURL string)
	walk = func(sitemapURL string) {
		if seen[sitemapURL] || fetched >= maxSitemapFetches {
			return
		}
		seen[sitemapURL] = true
		fetched++

		if err := c.rateLimiter.Wait(ctx, sitemapURL); err != nil {
			return
		}
		resp, err := c.httpClient.Get(ctx, sitemapURL)
		if err != nil {
			c.logger.Debug("sitemap fetch failed", "url", sitemapURL, "error", err)
			return
		}
		if resp.StatusCode != 200 {
			// The conventional location often just does not exist; only
			// record a row for sitemaps the site actually advertised.
			c.logger.Debug("sitemap not available", "url", sitemapURL, "status", resp.StatusCode)
			return
		}

		result := parser.ParseSitemap(resp.Body)
		c.recordSitemap(sitemapURL, resp.StatusCode, result)

		if result.Type == audit.SitemapIndex {
			for _, child := range result.URLs {
				walk(child)
			}
			return
		}
		for _, pageURL := range result.URLs {
			if normalized, err := NormalizeURL(pageURL, c.policy); err == nil {
				c.sitemapURLs[normalized] = true
			}
		}
	}

	for _, candidate := range candidates {
		walk(candidate)
	}

	if len(c.sitemaps) > 0 {
		c.logger.Info("discovered sitemaps",
			"count", len(c.sitemaps), "page_urls", len(c.sitemapURLs))
	}
}

func (c *Crawler) recordSitemap(sitemapURL string, statusCode int, result *parser.SitemapResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sitemaps = append(c.sitemaps, &audit.Sitemap{
		TenantID:       c.project.TenantID,
		AuditID:        c.auditID,
		URL:            sitemapURL,
		URLHash:        audit.HashURL(sitemapURL),
		Type:           result.Type,
		EntriesCount:   result.EntriesCount,
		ValidEntries:   result.ValidEntries,
		InvalidEntries: result.InvalidEntries,
		StatusCode:     statusCode,
		IsValidXML:     result.IsValidXML,
		ParseErrors:    result.ParseErrors,
		DiscoveredURLs: result.Sample,
		CreatedAt:      time.Now().UTC(),
	})
}
