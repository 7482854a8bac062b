package audit

// Health score weighting. The score starts at 100 and loses points in three
// independent bands:
//
//   - indexability: up to 25 points, proportional to the share of crawled
//     pages that are not indexable;
//   - issues: up to 40 points. Issues are weighted by severity (ERROR 5,
//     WARN 1, INFO 0.1) and normalized against the worst plausible load of
//     one ERROR per page;
//   - broken references: up to 35 points, proportional to the share of
//     links and resources that are broken.
//
// An audit with zero pages has no signal and scores 0.
const (
	healthIndexabilityWeight = 25.0
	healthIssueWeight        = 40.0
	healthBrokenWeight       = 35.0

	issueWeightError = 5.0
	issueWeightWarn  = 1.0
	issueWeightInfo  = 0.1
)

// HealthInput carries the rollup counters the health score is computed from.
type HealthInput struct {
	PagesCrawled      int
	PagesNonIndexable int

	IssuesError int
	IssuesWarn  int
	IssuesInfo  int

	// TotalLinks and TotalResources size the broken-reference ratio.
	TotalLinks     int
	TotalResources int
	BrokenLinks    int
	BrokenImages   int
}

// HealthScore computes the 0-100 site health score for one audit.
func HealthScore(in HealthInput) float64 {
	if in.PagesCrawled <= 0 {
		return 0
	}

	pages := float64(in.PagesCrawled)

	indexPenalty := healthIndexabilityWeight * float64(in.PagesNonIndexable) / pages

	weighted := issueWeightError*float64(in.IssuesError) +
		issueWeightWarn*float64(in.IssuesWarn) +
		issueWeightInfo*float64(in.IssuesInfo)
	issuePenalty := healthIssueWeight * weighted / (issueWeightError * pages)
	if issuePenalty > healthIssueWeight {
		issuePenalty = healthIssueWeight
	}

	var brokenPenalty float64
	if refs := in.TotalLinks + in.TotalResources; refs > 0 {
		brokenPenalty = healthBrokenWeight *
			float64(in.BrokenLinks+in.BrokenImages) / float64(refs)
	}

	score := 100 - indexPenalty - issuePenalty - brokenPenalty
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
