// Package crawler walks one project's site for an audit run: it discovers
// sitemaps, fetches pages through a rate-limited worker pool, extracts
// links and resources, derives issues, and writes the fact records in
// batches when the walk completes.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/seoaudit/seoaudit/internal/analyzer"
	"github.com/seoaudit/seoaudit/internal/audit"
	"github.com/seoaudit/seoaudit/internal/parser"
)

// Defaults applied when the project leaves a setting at zero.
const (
	defaultUserAgent   = "seoauditbot/1.0 (+https://github.com/seoaudit/seoaudit)"
	defaultConcurrency = 4
	defaultDelay       = 500 * time.Millisecond
	defaultTimeout     = 30 * time.Second

	// Bounds for the post-walk verification passes.
	maxSitemapFetches     = 25
	maxExternalLinkChecks = 200
	maxResourceChecks     = 500
)

// Storage is the subset of the persistence layer the crawler writes to.
type Storage interface {
	SavePages(pages []*audit.Page) error
	SaveLinks(links []*audit.Link) error
	SaveResources(resources []*audit.Resource) error
	SaveIssues(issues []*audit.Issue) error
	SaveSitemaps(sitemaps []*audit.Sitemap) error
}

// Crawler runs one audit's site walk.
type Crawler struct {
	project *audit.Project
	auditID string
	storage Storage
	logger  *slog.Logger
	seedURL string

	httpClient  *HTTPClient
	htmlParser  *parser.Parser
	rateLimiter *RateLimiter
	robots      *RobotsParser
	scope       *scope
	policy      ParamPolicy
	frontier    *frontier

	mu          sync.Mutex
	pages       []*audit.Page
	pageByHash  map[string]*audit.Page
	h1Counts    map[string]int
	links       []*audit.Link
	resources   []*audit.Resource
	issues      []*audit.Issue
	sitemaps    []*audit.Sitemap
	sitemapURLs map[string]bool

	wg sync.WaitGroup
}

// New creates a crawler for one running audit of the given project.
func New(p *audit.Project, auditID string, storage Storage, logger *slog.Logger) (*Crawler, error) {
	sc, err := newScope(p)
	if err != nil {
		return nil, fmt.Errorf("invalid scope pattern: %w", err)
	}

	userAgent := p.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := defaultTimeout
	if p.TimeoutSeconds > 0 {
		timeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	delay := defaultDelay
	if p.DelayMS > 0 {
		delay = time.Duration(p.DelayMS) * time.Millisecond
	}

	httpClient := NewHTTPClient(userAgent, timeout)
	switch p.AuthType {
	case audit.AuthBasic:
		httpClient.SetBasicAuth(p.AuthUsername, p.AuthPassword)
	case audit.AuthCookie:
		httpClient.SetCookieHeader(p.AuthCookieHeader)
	case audit.AuthDigest:
		// Digest is accepted in the project config but not implemented by
		// the crawl client; the run proceeds unauthenticated.
		logger.Warn("digest authentication is not supported, crawling unauthenticated",
			"project_id", p.ID)
	}

	return &Crawler{
		project:     p,
		auditID:     auditID,
		storage:     storage,
		logger:      logger,
		seedURL:     p.FullDomainURL(),
		httpClient:  httpClient,
		htmlParser:  parser.New(p.Domain, p.IncludeSubdomains),
		rateLimiter: NewRateLimiter(delay),
		robots:      NewRobotsParser(httpClient, true),
		scope:       sc,
		policy: ParamPolicy{
			Whitelist:      p.ParamWhitelist,
			Blacklist:      p.ParamBlacklist,
			NormalizeOrder: p.NormalizeParamOrder,
		},
		frontier:    newFrontier(p.MaxPages, p.MaxDepth),
		pageByHash:  make(map[string]*audit.Page),
		h1Counts:    make(map[string]int),
		sitemapURLs: make(map[string]bool),
	}, nil
}

// Run executes the crawl. It blocks until the frontier drains or the
// context is cancelled; a cancelled run persists the facts collected so
// far and returns the context error.
func (c *Crawler) Run(ctx context.Context) error {
	start := time.Now()
	seed, err := NormalizeURL(c.seedURL, c.policy)
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}

	c.logger.Info("starting crawl",
		"audit_id", c.auditID, "seed", seed,
		"max_pages", c.project.MaxPages, "max_depth", c.project.MaxDepth)

	c.discoverSitemaps(ctx, seed)
	c.frontier.push(seed, 0)
	c.enqueueSitemapURLs()

	concurrency := c.project.MaxConcurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	stop := context.AfterFunc(ctx, c.frontier.close)
	defer stop()

	for i := 0; i < concurrency; i++ {
		c.wg.Add(1)
		go c.worker(ctx, i)
	}
	c.wg.Wait()
	c.httpClient.Close()

	if err := ctx.Err(); err != nil {
		// Keep what was collected so the failed audit stays inspectable.
		if flushErr := c.flush(); flushErr != nil {
			c.logger.Warn("failed to persist partial crawl results", "error", flushErr)
		}
		c.logger.Info("crawl cancelled", "audit_id", c.auditID, "pages", len(c.pages))
		return err
	}

	c.resolveLinkTargets()
	c.checkExternalLinks(ctx)
	c.checkResources(ctx)
	c.runAuditChecks()

	if err := c.flush(); err != nil {
		return err
	}

	c.logger.Info("crawl finished",
		"audit_id", c.auditID,
		"pages", len(c.pages), "links", len(c.links),
		"issues", len(c.issues), "duration", time.Since(start))
	return nil
}

// enqueueSitemapURLs queues the in-scope pages the sitemaps advertised.
// Pages no anchor points at still get crawled this way and can surface
// as orphans. They enter at depth 1, under the same page and depth
// limits as discovered links.
func (c *Crawler) enqueueSitemapURLs() {
	for u := range c.sitemapURLs {
		if c.scope.inScope(u) {
			c.frontier.push(u, 1)
		}
	}
}

// worker pulls URLs from the frontier until it drains.
func (c *Crawler) worker(ctx context.Context, id int) {
	defer c.wg.Done()

	for {
		item, ok := c.frontier.next()
		if !ok {
			return
		}
		c.processURL(ctx, item)
		c.frontier.done()

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (c *Crawler) processURL(ctx context.Context, item frontierItem) {
	allowed, err := c.robots.IsAllowed(ctx, item.URL)
	if err != nil {
		c.logger.Warn("robots.txt check failed", "url", item.URL, "error", err)
	}
	if !allowed && c.project.ObeyRobots {
		c.logger.Debug("skipping URL disallowed by robots.txt", "url", item.URL)
		return
	}

	if err := c.rateLimiter.Wait(ctx, item.URL); err != nil {
		return
	}

	resp, err := c.httpClient.Get(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.recordFetchFailure(item, err)
		return
	}

	c.recordPage(item, resp, !allowed)
}

// recordFetchFailure stores a page row with status 0 for URLs that never
// produced an HTTP response (DNS failure, timeout, TLS error).
func (c *Crawler) recordFetchFailure(item frontierItem, fetchErr error) {
	c.logger.Warn("fetch failed", "url", item.URL, "error", fetchErr)

	page := &audit.Page{
		TenantID:  c.project.TenantID,
		AuditID:   c.auditID,
		URL:       item.URL,
		URLHash:   audit.HashURL(item.URL),
		Depth:     item.Depth,
		CrawledAt: time.Now().UTC(),
	}
	page.IndexabilityReasons = parser.IndexabilityReasons(parser.IndexabilitySignals{
		StatusCode: 0,
		PageURL:    item.URL,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.addPageLocked(page, 0)
}

func (c *Crawler) recordPage(item frontierItem, resp *HTTPResponse, blockedByRobots bool) {
	page := &audit.Page{
		TenantID:    c.project.TenantID,
		AuditID:     c.auditID,
		URL:         item.URL,
		URLHash:     audit.HashURL(item.URL),
		StatusCode:  resp.StatusCode,
		LoadTimeMS:  int(resp.Metrics.DownloadTime.Milliseconds()),
		SizeBytes:   len(resp.Body),
		ContentType: resp.ContentType,
		Depth:       item.Depth,
		CrawledAt:   time.Now().UTC(),
		InSitemap:   c.inSitemap(item.URL),
	}

	var data *parser.PageData
	if resp.StatusCode < 300 && isHTML(resp.ContentType) {
		parsed, err := c.htmlParser.Parse(resp.FinalURL, resp.Body)
		if err != nil {
			c.logger.Warn("HTML parse failed", "url", item.URL, "error", err)
		} else {
			data = parsed
			c.applyPageData(page, data)
		}
	}

	page.IndexabilityReasons = parser.IndexabilityReasons(parser.IndexabilitySignals{
		StatusCode:      resp.StatusCode,
		MetaRobots:      page.MetaRobots,
		XRobotsTag:      resp.Headers.Get("X-Robots-Tag"),
		Canonical:       page.Canonical,
		PageURL:         item.URL,
		BlockedByRobots: blockedByRobots,
	})

	h1Count := 0
	if data != nil {
		h1Count = data.H1Count
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.addPageLocked(page, h1Count)

	if data != nil {
		c.collectLinksLocked(page, item.Depth, data)
		c.collectResourcesLocked(page, data)
	}
}

// addPageLocked registers the crawled page. Issue detection runs later,
// once link targets and resources are verified.
func (c *Crawler) addPageLocked(page *audit.Page, h1Count int) {
	page.ID = newPageID()
	c.pages = append(c.pages, page)
	c.pageByHash[page.URLHash] = page
	c.h1Counts[page.ID] = h1Count

	c.logger.Info("crawled page",
		"url", page.URL, "status", page.StatusCode,
		"depth", page.Depth, "load_ms", page.LoadTimeMS)
}

func (c *Crawler) applyPageData(page *audit.Page, data *parser.PageData) {
	page.Title = data.Title
	page.MetaDescription = data.MetaDescription
	page.MetaRobots = data.MetaRobots
	page.Canonical = data.Canonical
	page.H1 = data.H1
	page.H2First = data.H2First
	page.OGTitle = data.OGTitle
	page.OGDescription = data.OGDescription
	page.OGImage = data.OGImage
	page.OGType = data.OGType
	page.TwitterCard = data.TwitterCard
	page.TwitterTitle = data.TwitterTitle
	page.TwitterDescription = data.TwitterDescription
	page.TwitterImage = data.TwitterImage
	page.SchemaTypes = data.SchemaTypes
	page.HreflangAlternates = data.HreflangAlternates
	page.ContentHash = data.ContentHash

	for _, l := range data.Links {
		switch l.Type {
		case audit.LinkInternal:
			page.InternalLinksCount++
		case audit.LinkExternal:
			page.ExternalLinksCount++
		}
	}
	for _, r := range data.Resources {
		switch r.Type {
		case audit.ResourceImage:
			page.ImagesCount++
		case audit.ResourceCSS:
			page.CSSCount++
		case audit.ResourceJS:
			page.JSCount++
		}
	}
}

func (c *Crawler) collectLinksLocked(page *audit.Page, depth int, data *parser.PageData) {
	for _, l := range data.Links {
		link := &audit.Link{
			TenantID:   c.project.TenantID,
			AuditID:    c.auditID,
			FromPageID: page.ID,
			ToURL:      l.URL,
			Type:       l.Type,
			AnchorText: l.AnchorText,
			Rel:        l.Rel,
			Nofollow:   l.Nofollow,
			Position:   l.Position,
		}

		if l.Type == audit.LinkInternal || l.Type == audit.LinkExternal {
			if normalized, err := NormalizeURL(l.URL, c.policy); err == nil {
				link.ToURL = normalized
				link.ToURLHash = audit.HashURL(normalized)
			}
		}
		c.links = append(c.links, link)

		if l.Type == audit.LinkInternal && c.scope.inScope(link.ToURL) {
			c.frontier.push(link.ToURL, depth+1)
		}
	}
}

func (c *Crawler) collectResourcesLocked(page *audit.Page, data *parser.PageData) {
	for _, r := range data.Resources {
		c.resources = append(c.resources, &audit.Resource{
			TenantID:      c.project.TenantID,
			AuditID:       c.auditID,
			PageID:        page.ID,
			URL:           r.URL,
			URLHash:       audit.HashURL(r.URL),
			Type:          r.Type,
			Alt:           r.Alt,
			HasDimensions: r.HasDimensions,
		})
	}
}

// resolveLinkTargets fills in to_page_id and broken flags for internal
// links whose targets were crawled in this run.
func (c *Crawler) resolveLinkTargets() {
	for _, l := range c.links {
		if l.Type != audit.LinkInternal || l.ToURLHash == "" {
			continue
		}
		target, ok := c.pageByHash[l.ToURLHash]
		if !ok {
			continue
		}
		l.ToPageID = target.ID
		l.TargetStatusCode = target.StatusCode
		l.IsBroken = target.StatusCode == 0 || target.StatusCode >= 400
	}
}

// checkExternalLinks verifies a bounded number of unique external link
// targets. Unchecked targets keep status 0 and are not marked broken.
func (c *Crawler) checkExternalLinks(ctx context.Context) {
	byURL := map[string][]*audit.Link{}
	var order []string
	for _, l := range c.links {
		if l.Type != audit.LinkExternal {
			continue
		}
		if _, ok := byURL[l.ToURL]; !ok {
			order = append(order, l.ToURL)
		}
		byURL[l.ToURL] = append(byURL[l.ToURL], l)
	}

	if len(order) > maxExternalLinkChecks {
		order = order[:maxExternalLinkChecks]
	}

	for _, target := range order {
		status := c.fetchStatus(ctx, target)
		if status == -1 {
			return
		}
		for _, l := range byURL[target] {
			l.TargetStatusCode = status
			l.IsBroken = status == 0 || status >= 400
		}
	}
}

// checkResources verifies a bounded number of unique sub-resource URLs so
// broken images can be reported.
func (c *Crawler) checkResources(ctx context.Context) {
	status := map[string]int{}
	checked := 0

	for _, r := range c.resources {
		st, ok := status[r.URLHash]
		if !ok {
			if checked >= maxResourceChecks {
				continue
			}
			st = c.fetchStatus(ctx, r.URL)
			if st == -1 {
				return
			}
			status[r.URLHash] = st
			checked++
		}
		r.StatusCode = st
		r.IsBroken = st == 0 || st >= 400
	}
}

// fetchStatus GETs a URL and returns its status code, 0 for a transport
// failure, or -1 when the context was cancelled.
func (c *Crawler) fetchStatus(ctx context.Context, target string) int {
	if err := c.rateLimiter.Wait(ctx, target); err != nil {
		return -1
	}
	resp, err := c.httpClient.Get(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			return -1
		}
		return 0
	}
	return resp.StatusCode
}

// runAuditChecks derives all issues: the per-page checks (deferred until
// resources were verified) and the whole-crawl checks.
func (c *Crawler) runAuditChecks() {
	imagesByPage := map[string][]*audit.Resource{}
	for _, r := range c.resources {
		if r.IsImage() {
			imagesByPage[r.PageID] = append(imagesByPage[r.PageID], r)
		}
	}

	for _, p := range c.pages {
		c.issues = append(c.issues, analyzer.CheckPage(analyzer.PageFacts{
			Page:    p,
			H1Count: c.h1Counts[p.ID],
			Images:  imagesByPage[p.ID],
		})...)
	}

	c.issues = append(c.issues, analyzer.CheckAudit(
		c.project.TenantID, c.auditID,
		c.pages, c.links, c.resources, c.sitemaps,
		time.Now().UTC(),
	)...)
}

func (c *Crawler) flush() error {
	if err := c.storage.SaveSitemaps(c.sitemaps); err != nil {
		return fmt.Errorf("failed to save sitemaps: %w", err)
	}
	if err := c.storage.SavePages(c.pages); err != nil {
		return fmt.Errorf("failed to save pages: %w", err)
	}
	if err := c.storage.SaveLinks(c.links); err != nil {
		return fmt.Errorf("failed to save links: %w", err)
	}
	if err := c.storage.SaveResources(c.resources); err != nil {
		return fmt.Errorf("failed to save resources: %w", err)
	}
	if err := c.storage.SaveIssues(c.issues); err != nil {
		return fmt.Errorf("failed to save issues: %w", err)
	}
	return nil
}

func (c *Crawler) inSitemap(normalizedURL string) bool {
	return c.sitemapURLs[normalizedURL]
}

func isHTML(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}

func hostAndScheme(rawURL string) (host, scheme string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", ""
	}
	return u.Host, u.Scheme
}
