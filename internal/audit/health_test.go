package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthScoreCleanSite(t *testing.T) {
	score := HealthScore(HealthInput{
		PagesCrawled: 50,
		TotalLinks:   200,
	})
	assert.Equal(t, 100.0, score)
}

func TestHealthScoreNoPages(t *testing.T) {
	assert.Equal(t, 0.0, HealthScore(HealthInput{}))
}

func TestHealthScoreBounds(t *testing.T) {
	// Everything broken: the score must clamp at 0, never go negative.
	score := HealthScore(HealthInput{
		PagesCrawled:      10,
		PagesNonIndexable: 10,
		IssuesError:       500,
		TotalLinks:        10,
		BrokenLinks:       10,
	})
	assert.Equal(t, 0.0, score)
}

func TestHealthScoreErrorsLowerScore(t *testing.T) {
	clean := HealthScore(HealthInput{PagesCrawled: 10, TotalLinks: 40})
	dirty := HealthScore(HealthInput{PagesCrawled: 10, TotalLinks: 40, IssuesError: 3})
	assert.Less(t, dirty, clean)
}

func TestHealthScoreSeverityOrdering(t *testing.T) {
	base := HealthInput{PagesCrawled: 20, TotalLinks: 100}

	withInfo := base
	withInfo.IssuesInfo = 5
	withWarn := base
	withWarn.IssuesWarn = 5
	withError := base
	withError.IssuesError = 5

	assert.Less(t, HealthScore(withWarn), HealthScore(withInfo))
	assert.Less(t, HealthScore(withError), HealthScore(withWarn))
}

func TestHealthScoreIssuePenaltyCapped(t *testing.T) {
	// The issue band tops out at 40 points; an absurd issue count cannot
	// eat into the other bands.
	in := HealthInput{PagesCrawled: 10, IssuesError: 100000}
	assert.Equal(t, 60.0, HealthScore(in))
}

func TestHealthScoreBrokenRatio(t *testing.T) {
	half := HealthScore(HealthInput{
		PagesCrawled: 10,
		TotalLinks:   10,
		BrokenLinks:  5,
	})
	assert.InDelta(t, 100-35.0/2, half, 1e-9)
}
