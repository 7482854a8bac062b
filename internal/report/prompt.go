package report

import (
	"fmt"
	"strings"

	"github.com/seoaudit/seoaudit/internal/audit"
)

const maxPromptIssues = 30

const systemPrompt = `You are an experienced technical SEO consultant. You are given the ` +
	`aggregate results of a site crawl and the most important detected issues. ` +
	`Respond with a single JSON object containing exactly these string fields: ` +
	`"executive_summary", "prioritized_actions", "quick_wins", "risks_dependencies", ` +
	`"long_term_recommendations". Each field holds markdown body text without headings. ` +
	`Be specific and actionable; refer to the actual findings, not generic advice.`

// buildPrompt renders the audit aggregates and the top issues into the
// user message. Issues arrive ordered by severity, so truncation keeps
// the most important ones.
func buildPrompt(a *audit.Audit, issues []*audit.Issue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Site: %s\n\n", a.Config.Domain)
	b.WriteString("Crawl summary:\n")
	fmt.Fprintf(&b, "- Pages crawled: %d (indexable: %d, non-indexable: %d, orphans: %d)\n",
		a.PagesCrawled, a.PagesIndexable, a.PagesNonIndexable, a.OrphanPages)
	fmt.Fprintf(&b, "- Issues: %d total (%d errors, %d warnings, %d info)\n",
		a.IssuesTotal, a.IssuesError, a.IssuesWarn, a.IssuesInfo)
	fmt.Fprintf(&b, "- Broken: %d internal links, %d external links, %d images\n",
		a.BrokenInternalLinks, a.BrokenExternalLinks, a.BrokenImages)
	fmt.Fprintf(&b, "- Averages: %d ms load time, %d bytes page size, %.1f click depth\n",
		a.AvgLoadTimeMS, a.AvgPageSizeBytes, a.AvgDepth)
	fmt.Fprintf(&b, "- Sitemap entries: %d found, %d valid\n",
		a.SitemapEntriesFound, a.SitemapEntriesValid)

	if a.HealthScore != nil {
		fmt.Fprintf(&b, "- Health score: %.1f/100 (%s)", *a.HealthScore, a.HealthStatus())
		if a.HealthScoreDelta != nil {
			fmt.Fprintf(&b, ", change since previous audit: %+.1f", *a.HealthScoreDelta)
		}
		b.WriteString("\n")
	}

	if len(issues) > 0 {
		b.WriteString("\nTop issues:\n")
		for i, issue := range issues {
			if i >= maxPromptIssues {
				fmt.Fprintf(&b, "... and %d more\n", len(issues)-maxPromptIssues)
				break
			}
			fmt.Fprintf(&b, "- [%s] %s: %s", issue.Severity, issue.Code, issue.Message)
			if issue.OccurrenceCount > 1 {
				fmt.Fprintf(&b, " (%d occurrences)", issue.OccurrenceCount)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
