package audit

// Rollup holds the aggregate counters computed once when an audit
// finalizes. The audit row is never mutated per page during the crawl;
// everything here is derived from the fact records in one pass.
type Rollup struct {
	PagesCrawled      int
	PagesIndexable    int
	PagesNonIndexable int
	OrphanPages       int

	IssuesTotal int
	IssuesError int
	IssuesWarn  int
	IssuesInfo  int

	BrokenInternalLinks int
	BrokenExternalLinks int
	BrokenImages        int

	AvgLoadTimeMS    int
	AvgPageSizeBytes int
	AvgDepth         float64

	SitemapEntriesFound int
	SitemapEntriesValid int

	TotalLinks     int
	TotalResources int

	HealthScore float64
}

// ComputeRollup derives the audit counters from the fact records of one
// run. It is pure so the finalization step and the tests share the same
// arithmetic.
func ComputeRollup(pages []*Page, links []*Link, resources []*Resource, issues []*Issue, sitemaps []*Sitemap) Rollup {
	var r Rollup

	r.PagesCrawled = len(pages)

	// Pages with at least one incoming internal link from another page.
	linkedTo := make(map[string]bool)
	for _, l := range links {
		if l.Type == LinkInternal && l.ToPageID != "" && l.ToPageID != l.FromPageID {
			linkedTo[l.ToPageID] = true
		}
	}

	var sumLoad, sumSize, sumDepth int
	for _, p := range pages {
		if p.Indexable() {
			r.PagesIndexable++
		} else {
			r.PagesNonIndexable++
		}
		if !linkedTo[p.ID] && p.Depth > 0 {
			r.OrphanPages++
		}
		sumLoad += p.LoadTimeMS
		sumSize += p.SizeBytes
		sumDepth += p.Depth
	}
	if r.PagesCrawled > 0 {
		r.AvgLoadTimeMS = sumLoad / r.PagesCrawled
		r.AvgPageSizeBytes = sumSize / r.PagesCrawled
		r.AvgDepth = float64(sumDepth) / float64(r.PagesCrawled)
	}

	for _, i := range issues {
		r.IssuesTotal++
		switch i.Severity {
		case SeverityError:
			r.IssuesError++
		case SeverityWarn:
			r.IssuesWarn++
		case SeverityInfo:
			r.IssuesInfo++
		}
	}

	r.TotalLinks = len(links)
	for _, l := range links {
		if !l.IsBroken {
			continue
		}
		switch l.Type {
		case LinkInternal:
			r.BrokenInternalLinks++
		case LinkExternal:
			r.BrokenExternalLinks++
		}
	}

	r.TotalResources = len(resources)
	for _, res := range resources {
		if res.IsBroken && res.Type == ResourceImage {
			r.BrokenImages++
		}
	}

	for _, s := range sitemaps {
		r.SitemapEntriesFound += s.EntriesCount
		r.SitemapEntriesValid += s.ValidEntries
	}

	r.HealthScore = HealthScore(HealthInput{
		PagesCrawled:      r.PagesCrawled,
		PagesNonIndexable: r.PagesNonIndexable,
		IssuesError:       r.IssuesError,
		IssuesWarn:        r.IssuesWarn,
		IssuesInfo:        r.IssuesInfo,
		TotalLinks:        r.TotalLinks,
		TotalResources:    r.TotalResources,
		BrokenLinks:       r.BrokenInternalLinks + r.BrokenExternalLinks,
		BrokenImages:      r.BrokenImages,
	})

	return r
}
