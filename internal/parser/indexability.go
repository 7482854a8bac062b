package parser

import (
	"net/url"
	"strings"
)

// Indexability-blocking signal names, persisted with the page record.
const (
	ReasonNoindexMeta       = "noindex-meta"
	ReasonNoindexHeader     = "noindex-header"
	ReasonHTTPError         = "http-error"
	ReasonFetchFailed       = "fetch-failed"
	ReasonBlockedRobots     = "blocked-robots"
	ReasonCanonicalMismatch = "canonical-mismatch"
)

// IndexabilitySignals holds everything the indexability check looks at.
type IndexabilitySignals struct {
	StatusCode      int
	MetaRobots      string
	XRobotsTag      string
	Canonical       string
	PageURL         string
	BlockedByRobots bool
}

// IndexabilityReasons derives the list of signals blocking a page from
// search indexing. An empty result means the page is indexable.
func IndexabilityReasons(sig IndexabilitySignals) []string {
	var reasons []string

	switch {
	case sig.StatusCode == 0:
		reasons = append(reasons, ReasonFetchFailed)
	case sig.StatusCode >= 400:
		reasons = append(reasons, ReasonHTTPError)
	}

	if hasRobotsDirective(sig.MetaRobots, "noindex") || hasRobotsDirective(sig.MetaRobots, "none") {
		reasons = append(reasons, ReasonNoindexMeta)
	}
	if hasRobotsDirective(sig.XRobotsTag, "noindex") || hasRobotsDirective(sig.XRobotsTag, "none") {
		reasons = append(reasons, ReasonNoindexHeader)
	}
	if sig.BlockedByRobots {
		reasons = append(reasons, ReasonBlockedRobots)
	}
	if sig.Canonical != "" && !sameCanonical(sig.Canonical, sig.PageURL) {
		reasons = append(reasons, ReasonCanonicalMismatch)
	}

	return reasons
}

// hasRobotsDirective checks a robots directive list ("noindex, nofollow")
// for one token, case-insensitively.
func hasRobotsDirective(value, directive string) bool {
	for _, part := range strings.Split(value, ",") {
		if strings.EqualFold(strings.TrimSpace(part), directive) {
			return true
		}
	}
	return false
}

// sameCanonical compares a canonical URL against the page URL ignoring
// cosmetic differences: scheme and host case, a www prefix, a trailing
// slash and any fragment.
func sameCanonical(canonical, pageURL string) bool {
	return normalizeForCompare(canonical) == normalizeForCompare(pageURL)
}

func normalizeForCompare(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
