package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seoaudit/seoaudit/internal/audit"
)

var runCmd = &cobra.Command{
	Use:   "run PROJECT_ID",
	Short: "Run an audit for a project",
	Long: `Run crawls the project's site, records pages, links, resources and
sitemaps, derives issues and finalizes the audit with rollup counters and
a health score. Interrupting the run marks the audit as failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

var auditsCmd = &cobra.Command{
	Use:   "audits",
	Short: "Inspect past audits",
}

var auditsListCmd = &cobra.Command{
	Use:   "list PROJECT_ID",
	Short: "List audits for a project",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditsList,
}

var auditsShowCmd = &cobra.Command{
	Use:   "show AUDIT_ID",
	Short: "Show one audit's counters and health score",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditsShow,
}

var auditsDeleteCmd = &cobra.Command{
	Use:   "delete AUDIT_ID",
	Short: "Delete an audit",
	Long: `Delete soft-deletes an audit so it no longer appears in listings.
With --purge the audit and all of its pages, links, resources, issues,
sitemaps and report are removed permanently.`,
	Args: cobra.ExactArgs(1),
	RunE: runAuditsDelete,
}

func init() {
	runCmd.Flags().Bool("report", false, "Generate the AI report after a successful audit")
	auditsShowCmd.Flags().Bool("issues", false, "Also list the audit's issues")

	auditsDeleteCmd.Flags().Bool("purge", false, "Permanently delete the audit and its fact records")

	auditsCmd.AddCommand(auditsListCmd, auditsShowCmd, auditsDeleteCmd)
	rootCmd.AddCommand(runCmd, auditsCmd)
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, store, logger, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	withReport, _ := cmd.Flags().GetBool("report")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRunner(cfg, store, logger)
	a, err := r.Run(ctx, cfg.Tenant, args[0], withReport)
	if err != nil {
		return fmt.Errorf("audit failed to run: %w", err)
	}

	printAudit(a)
	if a.IsFailed() {
		return fmt.Errorf("audit %s failed: %s", a.ID, a.ErrorMessage)
	}
	return nil
}

func runAuditsList(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	audits, err := store.ListAudits(cfg.Tenant, args[0])
	if err != nil {
		return fmt.Errorf("failed to list audits: %w", err)
	}
	if len(audits) == 0 {
		fmt.Println("No audits found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSTARTED\tPAGES\tISSUES\tHEALTH")
	for _, a := range audits {
		health := "-"
		if a.HealthScore != nil {
			health = fmt.Sprintf("%.1f", *a.HealthScore)
			if a.HealthScoreDelta != nil {
				health += fmt.Sprintf(" (%+.1f)", *a.HealthScoreDelta)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			a.ID, a.Status, a.StartedAt.Format(time.RFC3339),
			a.PagesCrawled, a.IssuesTotal, health)
	}
	return w.Flush()
}

func runAuditsShow(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	a, err := store.GetAudit(cfg.Tenant, args[0])
	if err != nil {
		return fmt.Errorf("failed to load audit: %w", err)
	}

	printAudit(a)

	withIssues, _ := cmd.Flags().GetBool("issues")
	if !withIssues {
		return nil
	}

	issues, err := store.ListIssues(cfg.Tenant, a.ID)
	if err != nil {
		return fmt.Errorf("failed to list issues: %w", err)
	}
	if len(issues) == 0 {
		fmt.Println("\nNo issues recorded.")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEVERITY\tCODE\tCATEGORY\tCOUNT\tMESSAGE")
	for _, issue := range issues {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			issue.Severity, issue.Code, issue.Category, issue.OccurrenceCount, issue.Message)
	}
	return w.Flush()
}

func runAuditsDelete(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	purge, _ := cmd.Flags().GetBool("purge")
	if purge {
		if err := store.DeleteAudit(cfg.Tenant, args[0]); err != nil {
			return fmt.Errorf("failed to purge audit: %w", err)
		}
		fmt.Printf("Purged audit %s\n", args[0])
		return nil
	}

	if err := store.SoftDeleteAudit(cfg.Tenant, args[0]); err != nil {
		return fmt.Errorf("failed to delete audit: %w", err)
	}
	fmt.Printf("Deleted audit %s\n", args[0])
	return nil
}

func printAudit(a *audit.Audit) {
	fmt.Printf("Audit %s\n", a.ID)
	fmt.Printf("  Status: %s\n", a.Status)
	fmt.Printf("  Started: %s\n", a.StartedAt.Format(time.RFC3339))
	if a.FinishedAt != nil {
		fmt.Printf("  Finished: %s (%ds)\n", a.FinishedAt.Format(time.RFC3339), a.DurationSeconds)
	}
	if a.IsFailed() && a.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", a.ErrorMessage)
	}

	fmt.Printf("  Pages: %d crawled, %d indexable, %d non-indexable, %d orphans\n",
		a.PagesCrawled, a.PagesIndexable, a.PagesNonIndexable, a.OrphanPages)
	fmt.Printf("  Issues: %d total (%d error, %d warn, %d info)\n",
		a.IssuesTotal, a.IssuesError, a.IssuesWarn, a.IssuesInfo)
	fmt.Printf("  Broken: %d internal links, %d external links, %d images\n",
		a.BrokenInternalLinks, a.BrokenExternalLinks, a.BrokenImages)
	fmt.Printf("  Averages: %dms load, %d bytes, depth %.1f\n",
		a.AvgLoadTimeMS, a.AvgPageSizeBytes, a.AvgDepth)
	if a.SitemapEntriesFound > 0 {
		fmt.Printf("  Sitemap entries: %d found, %d valid\n",
			a.SitemapEntriesFound, a.SitemapEntriesValid)
	}

	if a.HealthScore != nil {
		fmt.Printf("  Health score: %.1f (%s)", *a.HealthScore, a.HealthStatus())
		if a.HealthScoreDelta != nil {
			fmt.Printf(", %+.1f since last audit", *a.HealthScoreDelta)
		}
		fmt.Println()
	}
}
