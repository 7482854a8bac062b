package crawler

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// scope decides which URLs belong to the crawl: domain (optionally with
// subdomains), scope path prefix, and include/exclude regex patterns.
type scope struct {
	domain            string
	includeSubdomains bool
	scopePath         string
	includePatterns   []*regexp.Regexp
	excludePatterns   []*regexp.Regexp
}

func newScope(p *audit.Project) (*scope, error) {
	s := &scope{
		domain:            strings.ToLower(strings.TrimPrefix(p.Domain, "www.")),
		includeSubdomains: p.IncludeSubdomains,
		scopePath:         p.ScopePath,
	}

	for _, pattern := range p.IncludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.includePatterns = append(s.includePatterns, re)
	}
	for _, pattern := range p.ExcludePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, err
		}
		s.excludePatterns = append(s.excludePatterns, re)
	}
	return s, nil
}

// inScope reports whether a URL should be crawled.
func (s *scope) inScope(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !s.hostInScope(u.Host) {
		return false
	}
	if s.scopePath != "" && !strings.HasPrefix(u.Path, s.scopePath) {
		return false
	}

	if len(s.includePatterns) > 0 {
		matched := false
		for _, re := range s.includePatterns {
			if re.MatchString(rawURL) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range s.excludePatterns {
		if re.MatchString(rawURL) {
			return false
		}
	}
	return true
}

func (s *scope) hostInScope(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if host == s.domain {
		return true
	}
	return s.includeSubdomains && strings.HasSuffix(host, "."+s.domain)
}
