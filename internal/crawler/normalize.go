package crawler

import (
	"net/url"
	"sort"
	"strings"
)

// ParamPolicy controls how query parameters are normalized before dedup.
// A non-empty whitelist keeps only the listed parameters; otherwise the
// blacklist drops the listed ones. Order normalization sorts the remaining
// parameters so ?a=1&b=2 and ?b=2&a=1 collapse to one URL.
type ParamPolicy struct {
	Whitelist      []string
	Blacklist      []string
	NormalizeOrder bool
}

// NormalizeURL canonicalizes a URL for frontier dedup: lowercases scheme
// and host, strips the fragment and default ports, and applies the query
// parameter policy.
func NormalizeURL(rawURL string, policy ParamPolicy) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	if u.Path == "" {
		u.Path = "/"
	}

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	if u.RawQuery != "" {
		u.RawQuery = normalizeQuery(u.RawQuery, policy)
	}

	return u.String(), nil
}

// normalizeQuery filters and optionally reorders query parameters while
// keeping the original pair order when no reordering was requested.
func normalizeQuery(rawQuery string, policy ParamPolicy) string {
	allowed := map[string]bool{}
	for _, k := range policy.Whitelist {
		allowed[k] = true
	}
	blocked := map[string]bool{}
	for _, k := range policy.Blacklist {
		blocked[k] = true
	}

	var pairs []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			key = pair[:idx]
		}
		if decoded, err := url.QueryUnescape(key); err == nil {
			key = decoded
		}

		if len(policy.Whitelist) > 0 {
			if !allowed[key] {
				continue
			}
		} else if blocked[key] {
			continue
		}
		pairs = append(pairs, pair)
	}

	if policy.NormalizeOrder {
		sort.Strings(pairs)
	}
	return strings.Join(pairs, "&")
}
