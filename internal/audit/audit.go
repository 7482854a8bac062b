package audit

import (
	"time"
)

// Status is the lifecycle state of an audit run.
type Status string

// Valid audit states. The state machine is running -> completed or
// running -> failed; there are no other transitions. Cancellation is
// recorded as a failed audit with an explanatory error message.
const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Audit is one crawl execution against a project. It owns all fact records
// written during the run and carries the rollup counters computed once at
// finalization.
type Audit struct {
	ID        string
	TenantID  string
	ProjectID string

	Status     Status
	StartedAt  time.Time
	FinishedAt *time.Time
	// DurationSeconds is finished_at - started_at, set at finalization.
	DurationSeconds int

	// Config is the project configuration frozen at trigger time.
	Config ConfigSnapshot

	// Page counters
	PagesCrawled      int
	PagesIndexable    int
	PagesNonIndexable int
	OrphanPages       int

	// Issue counters by severity
	IssuesTotal int
	IssuesError int
	IssuesWarn  int
	IssuesInfo  int

	// Link and resource counters
	BrokenInternalLinks int
	BrokenExternalLinks int
	BrokenImages        int

	// Averages over crawled pages
	AvgLoadTimeMS    int
	AvgPageSizeBytes int
	AvgDepth         float64

	// Health score, 0-100. Previous is the prior audit's score for the same
	// project (nil for the first audit); Delta = score - previous.
	HealthScore         *float64
	HealthScorePrevious *float64
	HealthScoreDelta    *float64

	SitemapEntriesFound int
	SitemapEntriesValid int

	ErrorMessage string
	ErrorTrace   string

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// IsRunning reports whether the audit is still in progress.
func (a *Audit) IsRunning() bool { return a.Status == StatusRunning }

// IsCompleted reports whether the audit finished successfully.
func (a *Audit) IsCompleted() bool { return a.Status == StatusCompleted }

// IsFailed reports whether the audit terminated with an error.
func (a *Audit) IsFailed() bool { return a.Status == StatusFailed }

// HasImproved reports whether the health score rose since the previous audit.
func (a *Audit) HasImproved() bool {
	return a.HealthScoreDelta != nil && *a.HealthScoreDelta > 0
}

// HasWorsened reports whether the health score dropped since the previous audit.
func (a *Audit) HasWorsened() bool {
	return a.HealthScoreDelta != nil && *a.HealthScoreDelta < 0
}

// HealthStatus buckets the health score for presentation.
func (a *Audit) HealthStatus() string {
	if a.HealthScore == nil {
		return "unknown"
	}
	switch s := *a.HealthScore; {
	case s >= 90:
		return "excellent"
	case s >= 70:
		return "good"
	case s >= 50:
		return "needs_attention"
	default:
		return "critical"
	}
}
