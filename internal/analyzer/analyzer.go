// Package analyzer derives SEO issues from crawled page facts. Checks are
// pure functions over already-collected data; they never fetch anything.
package analyzer

import (
	"fmt"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/parser"
)

// Detection thresholds.
const (
	maxTitleLength    = 60
	maxMetaDescLength = 160
	maxPageSizeBytes  = 2 * 1024 * 1024
	maxLoadTimeMS     = 3000
)

// Issue categories.
const (
	CategoryContent      = "CONTENT"
	CategoryHTTP         = "HTTP"
	CategoryIndexability = "INDEXABILITY"
	CategoryPerformance  = "PERFORMANCE"
	CategoryMedia        = "MEDIA"
	CategoryLinks        = "LINKS"
	CategorySitemap      = "SITEMAP"
)

// PageFacts bundles one page with the extracted data the page-level checks
// need beyond what the page record itself stores.
type PageFacts struct {
	Page    *audit.Page
	H1Count int
	Images  []*audit.Resource
}

// CheckPage runs all page-level checks and returns the detected issues.
func CheckPage(f PageFacts) []*audit.Issue {
	p := f.Page
	c := &collector{
		tenantID: p.TenantID,
		auditID:  p.AuditID,
		now:      p.CrawledAt,
	}

	c.checkStatus(p)
	if p.IsSuccess() {
		c.checkContent(p, f.H1Count)
		c.checkPerformance(p)
		c.checkImages(p, f.Images)
	}
	c.checkIndexability(p)

	return c.issues
}

type collector struct {
	tenantID string
	auditID  string
	now      time.Time
	issues   []*audit.Issue
}

func (c *collector) add(pageID, code string, sev audit.Severity, category, msg string, evidence map[string]any) *audit.Issue {
	issue := &audit.Issue{
		TenantID:        c.tenantID,
		AuditID:         c.auditID,
		PageID:          pageID,
		Code:            code,
		Severity:        sev,
		Category:        category,
		Message:         msg,
		Evidence:        evidence,
		OccurrenceCount: 1,
		FirstDetectedAt: c.now,
	}
	c.issues = append(c.issues, issue)
	return issue
}

func (c *collector) checkStatus(p *audit.Page) {
	switch {
	case p.StatusCode == 0:
		c.add(p.ID, audit.CodeFetchFailed, audit.SeverityError, CategoryHTTP,
			fmt.Sprintf("Page could not be fetched: %s", p.URL),
			map[string]any{"url": p.URL})
	case p.StatusCode >= 500:
		c.add(p.ID, audit.CodeHTTP5xx, audit.SeverityError, CategoryHTTP,
			fmt.Sprintf("Page returned HTTP %d", p.StatusCode),
			map[string]any{"url": p.URL, "status_code": p.StatusCode})
	case p.StatusCode >= 400:
		c.add(p.ID, audit.CodeHTTP4xx, audit.SeverityError, CategoryHTTP,
			fmt.Sprintf("Page returned HTTP %d", p.StatusCode),
			map[string]any{"url": p.URL, "status_code": p.StatusCode})
	}
}

func (c *collector) checkContent(p *audit.Page, h1Count int) {
	if p.Title == "" {
		c.add(p.ID, audit.CodeTitleMissing, audit.SeverityError, CategoryContent,
			"Page has no title tag", map[string]any{"url": p.URL})
	} else if len(p.Title) > maxTitleLength {
		c.add(p.ID, audit.CodeTitleTooLong, audit.SeverityWarn, CategoryContent,
			fmt.Sprintf("Title is %d characters, recommended maximum is %d", len(p.Title), maxTitleLength),
			map[string]any{"url": p.URL, "title": p.Title, "length": len(p.Title)})
	}

	if p.MetaDescription == "" {
		c.add(p.ID, audit.CodeMetaDescriptionMissing, audit.SeverityWarn, CategoryContent,
			"Page has no meta description", map[string]any{"url": p.URL})
	} else if len(p.MetaDescription) > maxMetaDescLength {
		c.add(p.ID, audit.CodeMetaDescriptionTooLong, audit.SeverityInfo, CategoryContent,
			fmt.Sprintf("Meta description is %d characters, recommended maximum is %d", len(p.MetaDescription), maxMetaDescLength),
			map[string]any{"url": p.URL, "length": len(p.MetaDescription)})
	}

	if h1Count == 0 {
		c.add(p.ID, audit.CodeH1Missing, audit.SeverityWarn, CategoryContent,
			"Page has no H1 heading", map[string]any{"url": p.URL})
	} else if h1Count > 1 {
		c.add(p.ID, audit.CodeMultipleH1, audit.SeverityWarn, CategoryContent,
			fmt.Sprintf("Page has %d H1 headings", h1Count),
			map[string]any{"url": p.URL, "h1_count": h1Count})
	}
}

func (c *collector) checkPerformance(p *audit.Page) {
	if p.SizeBytes > maxPageSizeBytes {
		c.add(p.ID, audit.CodePageTooLarge, audit.SeverityWarn, CategoryPerformance,
			fmt.Sprintf("Page weighs %d bytes, recommended maximum is %d", p.SizeBytes, maxPageSizeBytes),
			map[string]any{"url": p.URL, "size_bytes": p.SizeBytes})
	}
	if p.LoadTimeMS > maxLoadTimeMS {
		c.add(p.ID, audit.CodeSlowPage, audit.SeverityWarn, CategoryPerformance,
			fmt.Sprintf("Page took %d ms to load, recommended maximum is %d", p.LoadTimeMS, maxLoadTimeMS),
			map[string]any{"url": p.URL, "load_time_ms": p.LoadTimeMS})
	}
}

func (c *collector) checkImages(p *audit.Page, images []*audit.Resource) {
	var missing []string
	for _, img := range images {
		if img.IsImage() && img.Alt == "" {
			missing = append(missing, img.URL)
		}
	}
	if len(missing) == 0 {
		return
	}
	issue := c.add(p.ID, audit.CodeImageMissingAlt, audit.SeverityWarn, CategoryMedia,
		fmt.Sprintf("%d image(s) without alt text", len(missing)),
		map[string]any{"url": p.URL, "images": sample(missing, 10)})
	issue.OccurrenceCount = len(missing)
}

// checkIndexability flags noindex signals. HTTP failures already produce
// their own issue, so they do not re-surface here.
func (c *collector) checkIndexability(p *audit.Page) {
	var blocking []string
	for _, r := range p.IndexabilityReasons {
		switch r {
		case parser.ReasonHTTPError, parser.ReasonFetchFailed:
			continue
		case parser.ReasonCanonicalMismatch:
			c.add(p.ID, audit.CodeCanonicalMismatch, audit.SeverityWarn, CategoryIndexability,
				"Canonical URL points to a different page",
				map[string]any{"url": p.URL, "canonical": p.Canonical})
		default:
			blocking = append(blocking, r)
		}
	}
	if len(blocking) > 0 {
		c.add(p.ID, audit.CodeNotIndexable, audit.SeverityWarn, CategoryIndexability,
			"Page is blocked from search indexing",
			map[string]any{"url": p.URL, "reasons": blocking})

		if p.InSitemap {
			c.add(p.ID, audit.CodeNoindexInSitemap, audit.SeverityWarn, CategoryIndexability,
				"Page is listed in the sitemap but blocked from indexing",
				map[string]any{"url": p.URL, "reasons": blocking})
		}
	}
}

func sample(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
