package parser

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// parseStructuredData collects schema.org types from JSON-LD script blocks.
// Types are de-duplicated and sorted. Malformed blocks are skipped.
func (p *Parser) parseStructuredData(doc *goquery.Document, data *PageData) {
	seen := map[string]bool{}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		collectSchemaTypes(payload, seen)
	})

	if len(seen) == 0 {
		return
	}
	for t := range seen {
		data.SchemaTypes = append(data.SchemaTypes, t)
	}
	sort.Strings(data.SchemaTypes)
}

// collectSchemaTypes walks a decoded JSON-LD value and records every @type
// it finds, including those nested in @graph arrays.
func collectSchemaTypes(v any, seen map[string]bool) {
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			collectSchemaTypes(item, seen)
		}
	case map[string]any:
		switch t := val["@type"].(type) {
		case string:
			if t = strings.TrimSpace(t); t != "" {
				seen[t] = true
			}
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					seen[strings.TrimSpace(s)] = true
				}
			}
		}
		if graph, ok := val["@graph"]; ok {
			collectSchemaTypes(graph, seen)
		}
	}
}
