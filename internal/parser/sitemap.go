package parser

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// Keep a bounded sample of discovered URLs per sitemap for previews.
const maxDiscoveredURLs = 50

// SitemapResult is the outcome of parsing one sitemap file.
type SitemapResult struct {
	Type           audit.SitemapType
	EntriesCount   int
	ValidEntries   int
	InvalidEntries int
	IsValidXML     bool
	ParseErrors    []string

	// URLs holds every valid page URL from a regular sitemap, or every
	// child sitemap URL from an index.
	URLs []string
	// Sample is the bounded preview slice persisted with the record.
	Sample []string
}

type sitemapIndexXML struct {
	XMLName  xml.Name `xml:"sitemapindex"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

type urlsetXML struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// ParseSitemap parses a sitemap or sitemap-index document. A document that
// is not well-formed XML yields IsValidXML false with zero entries; entries
// whose <loc> is missing or not an absolute http(s) URL count as invalid.
func ParseSitemap(body []byte) *SitemapResult {
	res := &SitemapResult{Type: audit.SitemapRegular}

	var index sitemapIndexXML
	if err := xml.Unmarshal(body, &index); err == nil {
		res.Type = audit.SitemapIndex
		res.IsValidXML = true
		for _, sm := range index.Sitemaps {
			res.addEntry(sm.Loc)
		}
		return res
	}

	var urlset urlsetXML
	if err := xml.Unmarshal(body, &urlset); err != nil {
		res.ParseErrors = append(res.ParseErrors, fmt.Sprintf("invalid XML: %v", err))
		return res
	}

	res.IsValidXML = true
	for _, u := range urlset.URLs {
		res.addEntry(u.Loc)
	}
	return res
}

func (r *SitemapResult) addEntry(loc string) {
	r.EntriesCount++
	loc = strings.TrimSpace(loc)
	if !isAbsoluteHTTP(loc) {
		r.InvalidEntries++
		r.ParseErrors = append(r.ParseErrors, fmt.Sprintf("entry %d: invalid loc %q", r.EntriesCount, loc))
		return
	}
	r.ValidEntries++
	r.URLs = append(r.URLs, loc)
	if len(r.Sample) < maxDiscoveredURLs {
		r.Sample = append(r.Sample, loc)
	}
}

func isAbsoluteHTTP(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
