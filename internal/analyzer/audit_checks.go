package analyzer

import (
	"fmt"
	"time"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// CheckAudit runs the checks that only make sense once the whole crawl is
// known: orphan pages, broken link targets, broken images and sitemap
// validation failures.
func CheckAudit(tenantID, auditID string, pages []*audit.Page, links []*audit.Link, resources []*audit.Resource, sitemaps []*audit.Sitemap, now time.Time) []*audit.Issue {
	c := &collector{tenantID: tenantID, auditID: auditID, now: now}

	c.checkOrphans(pages, links)
	c.checkBrokenLinks(links)
	c.checkBrokenImages(resources)
	c.checkSitemaps(sitemaps)

	return c.issues
}

// checkOrphans flags crawled pages that no other page links to. The seed
// page (depth 0) is exempt; self-links do not count as incoming.
func (c *collector) checkOrphans(pages []*audit.Page, links []*audit.Link) {
	linkedTo := map[string]bool{}
	for _, l := range links {
		if l.IsInternal() && l.ToPageID != "" && l.ToPageID != l.FromPageID {
			linkedTo[l.ToPageID] = true
		}
	}

	for _, p := range pages {
		if p.Depth > 0 && !linkedTo[p.ID] {
			c.add(p.ID, audit.CodeOrphanPage, audit.SeverityWarn, CategoryLinks,
				"Page is not linked from any other crawled page",
				map[string]any{"url": p.URL})
		}
	}
}

// checkBrokenLinks emits one issue per broken internal target URL, with the
// occurrence count carrying how many pages link to it.
func (c *collector) checkBrokenLinks(links []*audit.Link) {
	type target struct {
		count      int
		statusCode int
		fromPageID string
	}
	broken := map[string]*target{}
	var order []string

	for _, l := range links {
		if !l.IsInternal() || !l.IsBroken {
			continue
		}
		t, ok := broken[l.ToURL]
		if !ok {
			t = &target{statusCode: l.TargetStatusCode, fromPageID: l.FromPageID}
			broken[l.ToURL] = t
			order = append(order, l.ToURL)
		}
		t.count++
	}

	for _, toURL := range order {
		t := broken[toURL]
		issue := c.add(t.fromPageID, audit.CodeBrokenInternalLink, audit.SeverityError, CategoryLinks,
			fmt.Sprintf("Internal link target is broken: %s", toURL),
			map[string]any{"target_url": toURL, "status_code": t.statusCode, "link_count": t.count})
		issue.OccurrenceCount = t.count
	}
}

func (c *collector) checkBrokenImages(resources []*audit.Resource) {
	for _, r := range resources {
		if r.IsImage() && r.IsBroken {
			c.add(r.PageID, audit.CodeBrokenImage, audit.SeverityWarn, CategoryMedia,
				fmt.Sprintf("Image failed to load: %s", r.URL),
				map[string]any{"url": r.URL, "status_code": r.StatusCode})
		}
	}
}

func (c *collector) checkSitemaps(sitemaps []*audit.Sitemap) {
	for _, sm := range sitemaps {
		if !sm.HasErrors() {
			continue
		}
		c.add("", audit.CodeSitemapParseError, audit.SeverityError, CategorySitemap,
			fmt.Sprintf("Sitemap has validation errors: %s", sm.URL),
			map[string]any{
				"url":             sm.URL,
				"is_valid_xml":    sm.IsValidXML,
				"invalid_entries": sm.InvalidEntries,
				"parse_errors":    sample(sm.ParseErrors, 10),
			})
	}
}
