package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
)

func TestParseSitemapURLSet(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>https://example.com/</loc></url>
	<url><loc>https://example.com/about</loc></url>
	<url><loc>/relative/path</loc></url>
	<url><loc></loc></url>
</urlset>`

	res := ParseSitemap([]byte(body))
	assert.Equal(t, audit.SitemapRegular, res.Type)
	assert.True(t, res.IsValidXML)
	assert.Equal(t, 4, res.EntriesCount)
	assert.Equal(t, 2, res.ValidEntries)
	assert.Equal(t, 2, res.InvalidEntries)
	assert.Equal(t, res.EntriesCount, res.ValidEntries+res.InvalidEntries)
	assert.Equal(t, []string{"https://example.com/", "https://example.com/about"}, res.URLs)
	assert.Len(t, res.ParseErrors, 2)
}

func TestParseSitemapIndex(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
	<sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

	res := ParseSitemap([]byte(body))
	assert.Equal(t, audit.SitemapIndex, res.Type)
	assert.True(t, res.IsValidXML)
	assert.Equal(t, 2, res.ValidEntries)
	assert.Equal(t, []string{
		"https://example.com/sitemap-posts.xml",
		"https://example.com/sitemap-pages.xml",
	}, res.URLs)
}

func TestParseSitemapInvalidXML(t *testing.T) {
	res := ParseSitemap([]byte("<html><body>Not Found</body></html>"))
	assert.False(t, res.IsValidXML)
	assert.Zero(t, res.EntriesCount)
	require.NotEmpty(t, res.ParseErrors)
}

func TestParseSitemapSampleBounded(t *testing.T) {
	body := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`
	for i := 0; i < maxDiscoveredURLs+20; i++ {
		body += `<url><loc>https://example.com/p</loc></url>`
	}
	body += `</urlset>`

	res := ParseSitemap([]byte(body))
	assert.Equal(t, maxDiscoveredURLs+20, res.ValidEntries)
	assert.Len(t, res.Sample, maxDiscoveredURLs)
	assert.Len(t, res.URLs, maxDiscoveredURLs+20)
}
