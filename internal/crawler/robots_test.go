package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseRobotsTxt(t *testing.T) {
	content := `# comment
User-agent: *
Disallow: /admin
Disallow: /private/
Allow: /private/docs
Crawl-delay: 2

User-agent: badbot
Disallow: /

Sitemap: https://example.com/sitemap.xml
Sitemap: https://example.com/sitemap-news.xml`

	rules := parseRobotsTxt(content)

	assert.Equal(t, []string{"/admin", "/private/"}, rules.Disallowed)
	assert.Equal(t, []string{"/private/docs"}, rules.Allowed)
	assert.Equal(t, 2*time.Second, rules.CrawlDelay)
	assert.Equal(t, []string{
		"https://example.com/sitemap.xml",
		"https://example.com/sitemap-news.xml",
	}, rules.Sitemaps)
}

func TestParseRobotsTxtOtherAgentIgnored(t *testing.T) {
	content := `User-agent: badbot
Disallow: /everything`

	rules := parseRobotsTxt(content)
	assert.Empty(t, rules.Disallowed)
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		path    string
		pattern string
		want    bool
	}{
		{"/admin/users", "/admin", true},
		{"/public", "/admin", false},
		{"/search?q=x", "/search", true},
		{"/a/b/c.pdf", "/a/*.pdf", true},
		{"/a/b/c.txt", "/a/*.pdf", false},
		{"/exact", "/exact$", true},
		{"/exact/sub", "/exact$", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.path, tt.pattern),
			"path %q pattern %q", tt.path, tt.pattern)
	}
}
