package analyzer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
)

func codes(issues []*audit.Issue) []string {
	out := make([]string, len(issues))
	for i, iss := range issues {
		out[i] = iss.Code
	}
	return out
}

func find(t *testing.T, issues []*audit.Issue, code string) *audit.Issue {
	t.Helper()
	for _, iss := range issues {
		if iss.Code == code {
			return iss
		}
	}
	t.Fatalf("issue %s not found in %v", code, codes(issues))
	return nil
}

func basePage() *audit.Page {
	return &audit.Page{
		ID: "page-1", TenantID: "t1", AuditID: "a1",
		URL:             "https://example.com/a",
		StatusCode:      200,
		Title:           "A fine title",
		MetaDescription: "A fine description of the page.",
		CrawledAt:       time.Now().UTC(),
	}
}

func TestCheckPageClean(t *testing.T) {
	issues := CheckPage(PageFacts{Page: basePage(), H1Count: 1})
	assert.Empty(t, issues)
}

func TestCheckPageStatusCodes(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{0, audit.CodeFetchFailed},
		{404, audit.CodeHTTP4xx},
		{503, audit.CodeHTTP5xx},
	}
	for _, tt := range tests {
		p := basePage()
		p.StatusCode = tt.status
		issues := CheckPage(PageFacts{Page: p, H1Count: 1})
		iss := find(t, issues, tt.want)
		assert.Equal(t, audit.SeverityError, iss.Severity)
		assert.Equal(t, "page-1", iss.PageID)
		// Content checks do not run for failed fetches.
		assert.NotContains(t, codes(issues), audit.CodeTitleMissing)
	}
}

func TestCheckPageContent(t *testing.T) {
	p := basePage()
	p.Title = ""
	p.MetaDescription = strings.Repeat("x", 200)
	issues := CheckPage(PageFacts{Page: p, H1Count: 3})

	assert.ElementsMatch(t, []string{
		audit.CodeTitleMissing,
		audit.CodeMetaDescriptionTooLong,
		audit.CodeMultipleH1,
	}, codes(issues))

	assert.Equal(t, audit.SeverityError, find(t, issues, audit.CodeTitleMissing).Severity)
	multi := find(t, issues, audit.CodeMultipleH1)
	assert.Equal(t, 3, multi.Evidence["h1_count"])
}

func TestCheckPageTitleTooLong(t *testing.T) {
	p := basePage()
	p.Title = strings.Repeat("t", 61)
	issues := CheckPage(PageFacts{Page: p, H1Count: 1})
	iss := find(t, issues, audit.CodeTitleTooLong)
	assert.Equal(t, audit.SeverityWarn, iss.Severity)
	assert.Equal(t, 61, iss.Evidence["length"])
}

func TestCheckPagePerformance(t *testing.T) {
	p := basePage()
	p.SizeBytes = maxPageSizeBytes + 1
	p.LoadTimeMS = maxLoadTimeMS + 1
	issues := CheckPage(PageFacts{Page: p, H1Count: 1})

	assert.Contains(t, codes(issues), audit.CodePageTooLarge)
	assert.Contains(t, codes(issues), audit.CodeSlowPage)
}

func TestCheckPageImagesMissingAlt(t *testing.T) {
	p := basePage()
	images := []*audit.Resource{
		{Type: audit.ResourceImage, URL: "https://example.com/1.png", Alt: "ok"},
		{Type: audit.ResourceImage, URL: "https://example.com/2.png"},
		{Type: audit.ResourceImage, URL: "https://example.com/3.png"},
	}
	issues := CheckPage(PageFacts{Page: p, H1Count: 1, Images: images})

	iss := find(t, issues, audit.CodeImageMissingAlt)
	assert.Equal(t, 2, iss.OccurrenceCount)
}

func TestCheckPageIndexability(t *testing.T) {
	p := basePage()
	p.IndexabilityReasons = []string{"noindex-meta", "canonical-mismatch"}
	p.Canonical = "https://example.com/b"
	p.InSitemap = true
	issues := CheckPage(PageFacts{Page: p, H1Count: 1})

	assert.ElementsMatch(t, []string{
		audit.CodeCanonicalMismatch,
		audit.CodeNotIndexable,
		audit.CodeNoindexInSitemap,
	}, codes(issues))

	ni := find(t, issues, audit.CodeNotIndexable)
	assert.Equal(t, []string{"noindex-meta"}, ni.Evidence["reasons"])
}

func TestCheckPageHTTPErrorNotDoubleFlagged(t *testing.T) {
	p := basePage()
	p.StatusCode = 404
	p.IndexabilityReasons = []string{"http-error"}
	issues := CheckPage(PageFacts{Page: p, H1Count: 1})

	assert.Equal(t, []string{audit.CodeHTTP4xx}, codes(issues))
}

func TestCheckAuditOrphans(t *testing.T) {
	now := time.Now().UTC()
	pages := []*audit.Page{
		{ID: "seed", Depth: 0, URL: "https://example.com/"},
		{ID: "linked", Depth: 1, URL: "https://example.com/a"},
		{ID: "orphan", Depth: 2, URL: "https://example.com/b"},
		{ID: "selfie", Depth: 1, URL: "https://example.com/c"},
	}
	links := []*audit.Link{
		{FromPageID: "seed", ToPageID: "linked", Type: audit.LinkInternal},
		{FromPageID: "selfie", ToPageID: "selfie", Type: audit.LinkInternal},
	}

	issues := CheckAudit("t1", "a1", pages, links, nil, nil, now)
	var orphans []string
	for _, iss := range issues {
		if iss.Code == audit.CodeOrphanPage {
			orphans = append(orphans, iss.PageID)
		}
	}
	assert.ElementsMatch(t, []string{"orphan", "selfie"}, orphans)
}

func TestCheckAuditBrokenLinksAggregated(t *testing.T) {
	now := time.Now().UTC()
	links := []*audit.Link{
		{FromPageID: "p1", ToURL: "https://example.com/gone", Type: audit.LinkInternal, IsBroken: true, TargetStatusCode: 404},
		{FromPageID: "p2", ToURL: "https://example.com/gone", Type: audit.LinkInternal, IsBroken: true, TargetStatusCode: 404},
		{FromPageID: "p1", ToURL: "https://other.org/x", Type: audit.LinkExternal, IsBroken: true, TargetStatusCode: 500},
		{FromPageID: "p1", ToURL: "https://example.com/fine", Type: audit.LinkInternal},
	}

	issues := CheckAudit("t1", "a1", nil, links, nil, nil, now)
	require.Len(t, issues, 1)
	iss := issues[0]
	assert.Equal(t, audit.CodeBrokenInternalLink, iss.Code)
	assert.Equal(t, audit.SeverityError, iss.Severity)
	assert.Equal(t, 2, iss.OccurrenceCount)
	assert.Equal(t, "https://example.com/gone", iss.Evidence["target_url"])
}

func TestCheckAuditBrokenImagesAndSitemaps(t *testing.T) {
	now := time.Now().UTC()
	resources := []*audit.Resource{
		{PageID: "p1", Type: audit.ResourceImage, URL: "https://example.com/x.png", IsBroken: true, StatusCode: 404},
		{PageID: "p1", Type: audit.ResourceCSS, URL: "https://example.com/x.css", IsBroken: true},
	}
	sitemaps := []*audit.Sitemap{
		{URL: "https://example.com/sitemap.xml", IsValidXML: true},
		{URL: "https://example.com/broken.xml", IsValidXML: false, ParseErrors: []string{"invalid XML"}},
	}

	issues := CheckAudit("t1", "a1", nil, nil, resources, sitemaps, now)
	require.Len(t, issues, 2)
	assert.Equal(t, audit.CodeBrokenImage, issues[0].Code)
	assert.Equal(t, "p1", issues[0].PageID)
	assert.Equal(t, audit.CodeSitemapParseError, issues[1].Code)
	assert.Empty(t, issues[1].PageID)
}
