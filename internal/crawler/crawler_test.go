package crawler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seoaudit/seoaudit/internal/audit"
)

type memStorage struct {
	mu        sync.Mutex
	pages     []*audit.Page
	links     []*audit.Link
	resources []*audit.Resource
	issues    []*audit.Issue
	sitemaps  []*audit.Sitemap
}

func (m *memStorage) SavePages(pages []*audit.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, pages...)
	return nil
}

func (m *memStorage) SaveLinks(links []*audit.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = append(m.links, links...)
	return nil
}

func (m *memStorage) SaveResources(resources []*audit.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources = append(m.resources, resources...)
	return nil
}

func (m *memStorage) SaveIssues(issues []*audit.Issue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues = append(m.issues, issues...)
	return nil
}

func (m *memStorage) SaveSitemaps(sitemaps []*audit.Sitemap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sitemaps = append(m.sitemaps, sitemaps...)
	return nil
}

func (m *memStorage) pageByURL(url string) *audit.Page {
	for _, p := range m.pages {
		if p.URL == url {
			return p
		}
	}
	return nil
}

func (m *memStorage) issueCodes() map[string]bool {
	codes := map[string]bool{}
	for _, i := range m.issues {
		codes[i.Code] = true
	}
	return codes
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func crawlProject(serverURL string) *audit.Project {
	return &audit.Project{
		ID: "p1", TenantID: "t1",
		Domain:         strings.TrimPrefix(serverURL, "http://"),
		ObeyRobots:     true,
		MaxConcurrency: 2,
		DelayMS:        1,
		TimeoutSeconds: 5,
		MaxPages:       20,
		MaxDepth:       5,
	}
}

func newTestSite(t *testing.T, external *httptest.Server) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /private\nSitemap: %s/sitemap.xml\n", server.URL)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>%s/</loc></url>
			<url><loc>%s/a</loc></url>
		</urlset>`, server.URL, server.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<html><head>
			<title>Home</title>
			<meta name="description" content="The home page of the test site, described.">
			<link rel="stylesheet" href="/site.css">
		</head><body>
			<h1>Home</h1>
			<img src="/missing.png" alt="gone">
			<a href="/a">A</a>
			<a href="/missing">Missing</a>
			<a href="/private/area">Private</a>
			<a href="%s/dead">External</a>
		</body></html>`, external.URL)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head>
			<title>Page A</title>
			<meta name="description" content="Page A of the test site, described at length.">
			<meta name="robots" content="noindex">
		</head><body><h1>A</h1><a href="/">Home</a></body></html>`)
	})
	mux.HandleFunc("/private/area", func(w http.ResponseWriter, r *http.Request) {
		t.Error("crawler fetched a robots-disallowed URL")
	})
	mux.HandleFunc("/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		fmt.Fprint(w, "body{}")
	})

	server = httptest.NewServer(mux)
	return server
}

func TestCrawlerRun(t *testing.T) {
	external := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer external.Close()

	site := newTestSite(t, external)
	defer site.Close()

	store := &memStorage{}
	c, err := New(crawlProject(site.URL), "a1", store, testLogger())
	require.NoError(t, err)
	c.seedURL = site.URL

	require.NoError(t, c.Run(context.Background()))

	// Pages: seed, /a, /missing. The robots-disallowed URL is skipped.
	require.Len(t, store.pages, 3)

	home := store.pageByURL(site.URL + "/")
	require.NotNil(t, home)
	assert.Equal(t, 200, home.StatusCode)
	assert.Equal(t, 0, home.Depth)
	assert.Equal(t, "Home", home.Title)
	assert.True(t, home.InSitemap)
	assert.True(t, home.Indexable())
	assert.Equal(t, 3, home.InternalLinksCount)
	assert.Equal(t, 1, home.ExternalLinksCount)
	assert.Equal(t, 1, home.ImagesCount)
	assert.Equal(t, 1, home.CSSCount)

	pageA := store.pageByURL(site.URL + "/a")
	require.NotNil(t, pageA)
	assert.Equal(t, 1, pageA.Depth)
	assert.True(t, pageA.InSitemap)
	assert.False(t, pageA.Indexable())
	assert.Contains(t, pageA.IndexabilityReasons, "noindex-meta")

	missing := store.pageByURL(site.URL + "/missing")
	require.NotNil(t, missing)
	assert.Equal(t, 404, missing.StatusCode)

	// Link resolution: the internal link to /missing is broken, the
	// external link was verified and is broken too.
	var internalBroken, externalBroken bool
	for _, l := range store.links {
		if l.ToURL == site.URL+"/missing" {
			assert.Equal(t, missing.ID, l.ToPageID)
			assert.Equal(t, 404, l.TargetStatusCode)
			internalBroken = l.IsBroken
		}
		if l.Type == audit.LinkExternal {
			externalBroken = l.IsBroken
		}
	}
	assert.True(t, internalBroken)
	assert.True(t, externalBroken)

	// Resources: the stylesheet resolves, the image does not.
	for _, r := range store.resources {
		switch {
		case strings.HasSuffix(r.URL, "site.css"):
			assert.False(t, r.IsBroken)
		case strings.HasSuffix(r.URL, "missing.png"):
			assert.True(t, r.IsBroken)
		}
	}

	require.Len(t, store.sitemaps, 1)
	assert.Equal(t, 2, store.sitemaps[0].ValidEntries)
	assert.True(t, store.sitemaps[0].IsValidXML)

	codes := store.issueCodes()
	assert.True(t, codes[audit.CodeHTTP4xx])
	assert.True(t, codes[audit.CodeNotIndexable])
	assert.True(t, codes[audit.CodeNoindexInSitemap])
	assert.True(t, codes[audit.CodeBrokenInternalLink])
	assert.True(t, codes[audit.CodeBrokenImage])
}

func TestCrawlerSitemapOnlyPageIsOrphan(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>%s/</loc></url>
			<url><loc>%s/lonely</loc></url>
		</urlset>`, server.URL, server.URL)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Home</title></head>
			<body><h1>Home</h1><a href="/linked">Linked</a></body></html>`)
	})
	mux.HandleFunc("/linked", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Linked</title></head>
			<body><h1>Linked</h1></body></html>`)
	})
	mux.HandleFunc("/lonely", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Lonely</title></head>
			<body><h1>Lonely</h1></body></html>`)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	store := &memStorage{}
	c, err := New(crawlProject(server.URL), "a1", store, testLogger())
	require.NoError(t, err)
	c.seedURL = server.URL

	require.NoError(t, c.Run(context.Background()))

	// The sitemap-only page is crawled even though no anchor points at it.
	lonely := store.pageByURL(server.URL + "/lonely")
	require.NotNil(t, lonely, "sitemap-listed page must be crawled")
	assert.Equal(t, 1, lonely.Depth)
	assert.True(t, lonely.InSitemap)

	var incoming int
	for _, l := range store.links {
		if l.ToPageID == lonely.ID {
			incoming++
		}
	}
	assert.Zero(t, incoming, "no anchor should resolve to the lonely page")

	assert.True(t, store.issueCodes()[audit.CodeOrphanPage])
	for _, i := range store.issues {
		if i.Code == audit.CodeOrphanPage {
			assert.Equal(t, lonely.ID, i.PageID)
		}
	}

	// The linked sibling must not be flagged.
	linked := store.pageByURL(server.URL + "/linked")
	require.NotNil(t, linked)
	for _, i := range store.issues {
		if i.Code == audit.CodeOrphanPage {
			assert.NotEqual(t, linked.ID, i.PageID)
		}
	}
}

func TestCrawlerMaxPages(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" || r.URL.Path == "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		// Every page links to two fresh pages, without bound.
		fmt.Fprintf(w, `<html><head><title>T</title></head><body>
			<a href="%sx">x</a><a href="%sy">y</a></body></html>`,
			r.URL.Path, r.URL.Path)
	}))
	defer server.Close()

	p := crawlProject(server.URL)
	p.MaxPages = 5
	p.MaxDepth = 0

	store := &memStorage{}
	c, err := New(p, "a1", store, testLogger())
	require.NoError(t, err)
	c.seedURL = server.URL

	require.NoError(t, c.Run(context.Background()))
	assert.Len(t, store.pages, 5)
}

func TestCrawlerCancellation(t *testing.T) {
	nextFetchStarted := make(chan struct{})
	var once sync.Once

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" || r.URL.Path == "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path != "/" {
			// The second page stalls; by now the seed page is recorded
			// and the cancel lands mid-crawl.
			once.Do(func() { close(nextFetchStarted) })
			time.Sleep(time.Second)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>T</title></head><body><a href="/next">n</a></body></html>`)
	}))
	defer server.Close()

	p := crawlProject(server.URL)
	p.MaxConcurrency = 1
	store := &memStorage{}
	c, err := New(p, "a1", store, testLogger())
	require.NoError(t, err)
	c.seedURL = server.URL

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-nextFetchStarted
		cancel()
	}()

	err = c.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The facts collected before the cancel are persisted so the failed
	// audit stays inspectable; the stalled page never made it in.
	require.NotEmpty(t, store.pages, "cancelled run must keep partial results")
	assert.Equal(t, server.URL+"/", store.pages[0].URL)
	assert.Nil(t, store.pageByURL(server.URL+"/next"))
}

func TestCrawlerFetchFailure(t *testing.T) {
	// A server that closes immediately leaves a dead port behind.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	store := &memStorage{}
	c, err := New(crawlProject(deadURL), "a1", store, testLogger())
	require.NoError(t, err)
	c.seedURL = deadURL

	require.NoError(t, c.Run(context.Background()))

	require.Len(t, store.pages, 1)
	assert.Equal(t, 0, store.pages[0].StatusCode)
	assert.False(t, store.pages[0].Indexable())
	assert.True(t, store.issueCodes()[audit.CodeFetchFailed])
}
