// Package parser extracts SEO metadata, links and sub-resources from HTML
// documents, and parses XML sitemaps.
package parser

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// PageData is the parsed view of one HTML document.
type PageData struct {
	Title           string
	MetaDescription string
	MetaRobots      string
	Canonical       string

	H1      string
	H1Count int
	H2First string

	OGTitle       string
	OGDescription string
	OGImage       string
	OGType        string

	TwitterCard        string
	TwitterTitle       string
	TwitterDescription string
	TwitterImage       string

	SchemaTypes        []string
	HreflangAlternates []string

	ContentHash string

	Links     []LinkData
	Resources []ResourceData
}

// LinkData is one outgoing hyperlink found in the document.
type LinkData struct {
	URL        string
	Type       audit.LinkType
	AnchorText string
	Rel        string
	Nofollow   bool
	Position   audit.LinkPosition
}

// ResourceData is one sub-resource reference found in the document.
type ResourceData struct {
	URL           string
	Type          audit.ResourceType
	Alt           string
	HasDimensions bool
}

// Parser parses HTML pages within one project's scope. The scope domain
// decides which links classify as internal.
type Parser struct {
	domain            string
	includeSubdomains bool
}

// New creates a parser scoped to the project domain.
func New(domain string, includeSubdomains bool) *Parser {
	return &Parser{
		domain:            strings.ToLower(strings.TrimPrefix(domain, "www.")),
		includeSubdomains: includeSubdomains,
	}
}

// Parse extracts metadata, links and resources from an HTML document.
// pageURL is the final URL the document was fetched from; relative
// references resolve against it.
func (p *Parser) Parse(pageURL string, body []byte) (*PageData, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	data := &PageData{}

	data.Title = strings.TrimSpace(doc.Find("title").First().Text())
	p.parseMeta(doc, data)
	p.parseHeadings(doc, data)
	p.parseStructuredData(doc, data)
	p.parseHreflang(doc, base, data)
	p.parseLinks(doc, base, data)
	p.parseResources(doc, base, data)

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if abs, err := resolveURL(base, href); err == nil {
			data.Canonical = abs
		}
	}

	hash := sha256.Sum256(body)
	data.ContentHash = fmt.Sprintf("%x", hash)

	return data, nil
}

func (p *Parser) parseMeta(doc *goquery.Document, data *PageData) {
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if content == "" {
			return
		}

		if name, ok := s.Attr("name"); ok {
			switch strings.ToLower(name) {
			case "description":
				data.MetaDescription = content
			case "robots":
				data.MetaRobots = content
			case "twitter:card":
				data.TwitterCard = content
			case "twitter:title":
				data.TwitterTitle = content
			case "twitter:description":
				data.TwitterDescription = content
			case "twitter:image":
				data.TwitterImage = content
			}
			return
		}

		if prop, ok := s.Attr("property"); ok {
			switch strings.ToLower(prop) {
			case "og:title":
				data.OGTitle = content
			case "og:description":
				data.OGDescription = content
			case "og:image":
				data.OGImage = content
			case "og:type":
				data.OGType = content
			}
		}
	})
}

func (p *Parser) parseHeadings(doc *goquery.Document, data *PageData) {
	h1s := doc.Find("h1")
	data.H1Count = h1s.Length()
	data.H1 = strings.TrimSpace(h1s.First().Text())
	data.H2First = strings.TrimSpace(doc.Find("h2").First().Text())
}

func (p *Parser) parseHreflang(doc *goquery.Document, base *url.URL, data *PageData) {
	doc.Find(`link[rel="alternate"][hreflang]`).Each(func(_ int, s *goquery.Selection) {
		lang, _ := s.Attr("hreflang")
		if lang == "" {
			return
		}
		data.HreflangAlternates = append(data.HreflangAlternates, lang)
	})
}

func (p *Parser) parseLinks(doc *goquery.Document, base *url.URL, data *PageData) {
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}

		rel, _ := s.Attr("rel")

		link := LinkData{
			AnchorText: strings.TrimSpace(s.Text()),
			Rel:        rel,
			Nofollow:   hasRelToken(rel, "nofollow"),
			Position:   linkPosition(s),
		}

		switch {
		case strings.HasPrefix(href, "mailto:"):
			link.URL = href
			link.Type = audit.LinkMailto
		case strings.HasPrefix(href, "tel:"):
			link.URL = href
			link.Type = audit.LinkTel
		default:
			abs, err := resolveURL(base, href)
			if err != nil {
				return
			}
			target, err := url.Parse(abs)
			if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
				return
			}
			link.URL = abs
			if p.isInternalHost(target.Host) {
				link.Type = audit.LinkInternal
			} else {
				link.Type = audit.LinkExternal
			}
		}

		data.Links = append(data.Links, link)
	})
}

func (p *Parser) parseResources(doc *goquery.Document, base *url.URL, data *PageData) {
	add := func(rawURL string, typ audit.ResourceType, alt string, hasDims bool) {
		abs, err := resolveURL(base, rawURL)
		if err != nil {
			return
		}
		data.Resources = append(data.Resources, ResourceData{
			URL:           abs,
			Type:          typ,
			Alt:           alt,
			HasDimensions: hasDims,
		})
	}

	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		alt, _ := s.Attr("alt")
		_, hasW := s.Attr("width")
		_, hasH := s.Attr("height")
		add(src, audit.ResourceImage, alt, hasW && hasH)
	})

	doc.Find(`link[rel="stylesheet"][href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href, audit.ResourceCSS, "", false)
	})

	doc.Find("script[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src, audit.ResourceJS, "", false)
	})

	doc.Find("video[src], video source[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		add(src, audit.ResourceVideo, "", false)
	})

	doc.Find(`link[rel="preload"][as="font"][href]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href, audit.ResourceFont, "", false)
	})
}

// isInternalHost reports whether a host (with port, when present) belongs
// to the project scope. A www prefix is ignored on both sides; other
// subdomains count only when the project includes them.
func (p *Parser) isInternalHost(host string) bool {
	host = strings.ToLower(strings.TrimPrefix(host, "www."))
	if host == p.domain {
		return true
	}
	return p.includeSubdomains && strings.HasSuffix(host, "."+p.domain)
}

// linkPosition classifies where in the document an anchor sits, based on
// its nearest HTML5 landmark ancestor.
func linkPosition(s *goquery.Selection) audit.LinkPosition {
	anc := s.Closest("nav, header, footer, aside, main, article")
	if anc.Length() == 0 {
		return audit.PositionOther
	}
	switch goquery.NodeName(anc) {
	case "nav", "header":
		return audit.PositionNavigation
	case "footer":
		return audit.PositionFooter
	case "aside":
		return audit.PositionSidebar
	default:
		return audit.PositionContent
	}
}

func hasRelToken(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

func resolveURL(base *url.URL, href string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
