package crawler

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// RobotsParser fetches and evaluates robots.txt rules per domain.
type RobotsParser struct {
	httpClient *HTTPClient
	rules      map[string]*RobotRules
	mu         sync.RWMutex
	obeyRobots bool
}

// RobotRules contains the parsed rules for one domain.
type RobotRules struct {
	Disallowed []string
	Allowed    []string
	CrawlDelay time.Duration
	Sitemaps   []string
}

// NewRobotsParser creates a robots.txt parser. When obeyRobots is false,
// IsAllowed always permits but sitemap discovery still works.
func NewRobotsParser(httpClient *HTTPClient, obeyRobots bool) *RobotsParser {
	return &RobotsParser{
		httpClient: httpClient,
		rules:      make(map[string]*RobotRules),
		obeyRobots: obeyRobots,
	}
}

// IsAllowed checks whether a URL may be crawled under the domain's
// robots.txt. When the file cannot be fetched, crawling is assumed allowed.
func (r *RobotsParser) IsAllowed(ctx context.Context, urlStr string) (bool, error) {
	if !r.obeyRobots {
		return true, nil
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return false, fmt.Errorf("invalid URL: %w", err)
	}

	rules, err := r.getRules(ctx, parsedURL.Host, parsedURL.Scheme)
	if err != nil {
		return true, nil
	}

	path := parsedURL.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range rules.Disallowed {
		if matchesPattern(path, pattern) {
			// A longer allow rule overrides the disallow.
			for _, allowPattern := range rules.Allowed {
				if matchesPattern(path, allowPattern) && len(allowPattern) > len(pattern) {
					return true, nil
				}
			}
			return false, nil
		}
	}
	return true, nil
}

// Sitemaps returns the sitemap URLs advertised by the domain's robots.txt.
func (r *RobotsParser) Sitemaps(ctx context.Context, domain, scheme string) []string {
	rules, err := r.getRules(ctx, domain, scheme)
	if err != nil {
		return nil
	}
	return rules.Sitemaps
}

// CrawlDelay returns the robots.txt crawl delay for a domain, if any.
func (r *RobotsParser) CrawlDelay(domain string) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rules, ok := r.rules[domain]; ok {
		return rules.CrawlDelay
	}
	return 0
}

func (r *RobotsParser) getRules(ctx context.Context, domain, scheme string) (*RobotRules, error) {
	r.mu.RLock()
	rules, exists := r.rules[domain]
	r.mu.RUnlock()
	if exists {
		return rules, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", scheme, domain)
	resp, err := r.httpClient.Get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case 200:
		rules = parseRobotsTxt(string(resp.Body))
	case 404:
		// No robots.txt means everything is allowed.
		rules = &RobotRules{}
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	r.mu.Lock()
	r.rules[domain] = rules
	r.mu.Unlock()

	return rules, nil
}

func parseRobotsTxt(content string) *RobotRules {
	rules := &RobotRules{}

	scanner := bufio.NewScanner(strings.NewReader(content))
	inUserAgent := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}

		directive := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])

		switch directive {
		case "user-agent":
			agent := strings.ToLower(value)
			inUserAgent = agent == "*" || strings.Contains(agent, "seoaudit")

		case "disallow":
			if inUserAgent && value != "" {
				rules.Disallowed = append(rules.Disallowed, value)
			}

		case "allow":
			if inUserAgent && value != "" {
				rules.Allowed = append(rules.Allowed, value)
			}

		case "crawl-delay":
			if inUserAgent {
				if delay, err := time.ParseDuration(value + "s"); err == nil {
					rules.CrawlDelay = delay
				}
			}

		case "sitemap":
			rules.Sitemaps = append(rules.Sitemaps, value)
		}
	}

	return rules
}

// matchesPattern checks a path against a robots.txt pattern, supporting
// * wildcards and a trailing $ anchor; anything else is prefix matching.
func matchesPattern(path, pattern string) bool {
	if strings.Contains(pattern, "*") {
		parts := strings.Split(pattern, "*")
		if !strings.HasPrefix(path, parts[0]) {
			return false
		}
		remaining := path[len(parts[0]):]
		for i := 1; i < len(parts); i++ {
			if parts[i] == "" {
				continue
			}
			idx := strings.Index(remaining, parts[i])
			if idx == -1 {
				return false
			}
			remaining = remaining[idx+len(parts[i]):]
		}
		return true
	}

	if strings.HasSuffix(pattern, "$") {
		return path == strings.TrimSuffix(pattern, "$")
	}

	return strings.HasPrefix(path, pattern)
}
