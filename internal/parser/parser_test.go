package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
)

const testDoc = `<!DOCTYPE html>
<html>
<head>
	<title> Example Page </title>
	<meta name="description" content="A page about examples">
	<meta name="robots" content="noindex, nofollow">
	<link rel="canonical" href="/canonical">
	<meta property="og:title" content="OG Example">
	<meta property="og:image" content="/og.png">
	<meta name="twitter:card" content="summary_large_image">
	<link rel="alternate" hreflang="de" href="https://example.com/de/">
	<link rel="alternate" hreflang="fr" href="https://example.com/fr/">
	<link rel="stylesheet" href="/assets/site.css">
	<script src="/assets/app.js"></script>
	<script type="application/ld+json">
	{"@context": "https://schema.org", "@type": "Organization", "name": "Example"}
	</script>
	<script type="application/ld+json">
	{"@graph": [{"@type": "WebPage"}, {"@type": ["Article", "NewsArticle"]}]}
	</script>
	<script type="application/ld+json">not json at all</script>
</head>
<body>
	<nav><a href="/about">About us</a></nav>
	<main>
		<h1>Main Heading</h1>
		<h1>Second Heading</h1>
		<h2>Sub Heading</h2>
		<img src="/hero.png" alt="Hero" width="800" height="600">
		<img src="/bare.png">
		<a href="/contact" rel="nofollow">Contact</a>
		<a href="https://sub.example.com/page">Subdomain</a>
		<a href="https://other.org/elsewhere">Elsewhere</a>
		<a href="mailto:hi@example.com">Mail</a>
		<a href="tel:+4912345">Call</a>
		<a href="#section">Skip</a>
		<a href="javascript:void(0)">Nope</a>
	</main>
	<footer><a href="/imprint">Imprint</a></footer>
</body>
</html>`

func TestParseMetadata(t *testing.T) {
	p := New("example.com", false)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	assert.Equal(t, "Example Page", data.Title)
	assert.Equal(t, "A page about examples", data.MetaDescription)
	assert.Equal(t, "noindex, nofollow", data.MetaRobots)
	assert.Equal(t, "https://example.com/canonical", data.Canonical)
	assert.Equal(t, "OG Example", data.OGTitle)
	assert.Equal(t, "https://example.com/og.png", data.OGImage)
	assert.Equal(t, "summary_large_image", data.TwitterCard)
	assert.Equal(t, []string{"de", "fr"}, data.HreflangAlternates)
	assert.NotEmpty(t, data.ContentHash)
}

func TestParseHeadings(t *testing.T) {
	p := New("example.com", false)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	assert.Equal(t, "Main Heading", data.H1)
	assert.Equal(t, 2, data.H1Count)
	assert.Equal(t, "Sub Heading", data.H2First)
}

func TestParseStructuredData(t *testing.T) {
	p := New("example.com", false)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	assert.Equal(t, []string{"Article", "NewsArticle", "Organization", "WebPage"}, data.SchemaTypes)
}

func TestParseLinks(t *testing.T) {
	p := New("example.com", false)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	byURL := map[string]LinkData{}
	for _, l := range data.Links {
		byURL[l.URL] = l
	}

	// Fragment-only and javascript: links are dropped.
	require.Len(t, data.Links, 7)

	about := byURL["https://example.com/about"]
	assert.Equal(t, audit.LinkInternal, about.Type)
	assert.Equal(t, "About us", about.AnchorText)
	assert.Equal(t, audit.PositionNavigation, about.Position)

	contact := byURL["https://example.com/contact"]
	assert.True(t, contact.Nofollow)
	assert.Equal(t, "nofollow", contact.Rel)
	assert.Equal(t, audit.PositionContent, contact.Position)

	// Subdomains are external unless the project includes them.
	assert.Equal(t, audit.LinkExternal, byURL["https://sub.example.com/page"].Type)
	assert.Equal(t, audit.LinkExternal, byURL["https://other.org/elsewhere"].Type)
	assert.Equal(t, audit.LinkMailto, byURL["mailto:hi@example.com"].Type)
	assert.Equal(t, audit.LinkTel, byURL["tel:+4912345"].Type)
	assert.Equal(t, audit.PositionFooter, byURL["https://example.com/imprint"].Position)
}

func TestParseLinksIncludeSubdomains(t *testing.T) {
	p := New("example.com", true)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	for _, l := range data.Links {
		if l.URL == "https://sub.example.com/page" {
			assert.Equal(t, audit.LinkInternal, l.Type)
			return
		}
	}
	t.Fatal("subdomain link not found")
}

func TestParseResources(t *testing.T) {
	p := New("example.com", false)
	data, err := p.Parse("https://example.com/page", []byte(testDoc))
	require.NoError(t, err)

	byURL := map[string]ResourceData{}
	for _, r := range data.Resources {
		byURL[r.URL] = r
	}

	hero := byURL["https://example.com/hero.png"]
	assert.Equal(t, audit.ResourceImage, hero.Type)
	assert.Equal(t, "Hero", hero.Alt)
	assert.True(t, hero.HasDimensions)

	bare := byURL["https://example.com/bare.png"]
	assert.Empty(t, bare.Alt)
	assert.False(t, bare.HasDimensions)

	assert.Equal(t, audit.ResourceCSS, byURL["https://example.com/assets/site.css"].Type)
	assert.Equal(t, audit.ResourceJS, byURL["https://example.com/assets/app.js"].Type)
}

func TestIsInternalHostWWW(t *testing.T) {
	p := New("www.example.com", false)
	assert.True(t, p.isInternalHost("example.com"))
	assert.True(t, p.isInternalHost("WWW.Example.com"))
	assert.False(t, p.isInternalHost("sub.example.com"))
}
