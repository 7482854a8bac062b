package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/seoaudit/seoaudit/internal/audit"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage audit projects",
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	RunE:  runProjectCreate,
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	RunE:  runProjectList,
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete PROJECT_ID",
	Short: "Soft-delete a project and hide its audits",
	Args:  cobra.ExactArgs(1),
	RunE:  runProjectDelete,
}

func init() {
	f := projectCreateCmd.Flags()

	f.String("name", "", "Project name")
	f.String("domain", "", "Domain to audit, e.g. example.com (required)")
	f.String("description", "", "Project description")

	f.Bool("include-subdomains", false, "Crawl subdomains of the domain")
	f.String("scope-path", "", "Restrict the crawl to a path prefix, e.g. /blog")
	f.StringSlice("include-patterns", nil, "Regex patterns for URLs to include")
	f.StringSlice("exclude-patterns", nil, "Regex patterns for URLs to exclude")

	f.String("auth-type", "none", "Authentication type: none, basic, digest or cookie")
	f.String("auth-username", "", "Username for basic/digest authentication")
	f.String("auth-password", "", "Password for basic/digest authentication")
	f.String("auth-cookie", "", "Cookie header value for cookie authentication")

	f.StringSlice("param-whitelist", nil, "Keep only these query parameters")
	f.StringSlice("param-blacklist", nil, "Strip these query parameters")
	f.Bool("normalize-param-order", false, "Sort query parameters when normalizing URLs")

	f.String("user-agent", "", "HTTP User-Agent header")
	f.Bool("ignore-robots", false, "Crawl URLs disallowed by robots.txt")
	f.IntP("concurrency", "c", 4, "Number of concurrent workers")
	f.Int("delay", 500, "Delay between requests in milliseconds")
	f.IntP("timeout", "t", 30, "HTTP request timeout in seconds")
	f.IntP("max-pages", "l", 500, "Stop after N pages (0=unlimited)")
	f.Int("max-depth", 10, "Maximum link depth from the seed (0=unlimited)")

	f.String("schedule", "none", "Recurring audit schedule: none, daily, weekly or monthly")

	_ = projectCreateCmd.MarkFlagRequired("domain")

	projectCmd.AddCommand(projectCreateCmd, projectListCmd, projectDeleteCmd)
	rootCmd.AddCommand(projectCmd)
}

func runProjectCreate(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	f := cmd.Flags()
	getString := func(name string) string { v, _ := f.GetString(name); return v }
	getBool := func(name string) bool { v, _ := f.GetBool(name); return v }
	getInt := func(name string) int { v, _ := f.GetInt(name); return v }
	getSlice := func(name string) []string { v, _ := f.GetStringSlice(name); return v }

	authType, err := parseAuthType(getString("auth-type"))
	if err != nil {
		return err
	}
	schedule, err := parseSchedule(getString("schedule"))
	if err != nil {
		return err
	}

	p := &audit.Project{
		TenantID:    cfg.Tenant,
		Name:        getString("name"),
		Domain:      getString("domain"),
		Description: getString("description"),

		IncludeSubdomains: getBool("include-subdomains"),
		ScopePath:         getString("scope-path"),
		IncludePatterns:   getSlice("include-patterns"),
		ExcludePatterns:   getSlice("exclude-patterns"),

		AuthType:         authType,
		AuthUsername:     getString("auth-username"),
		AuthPassword:     getString("auth-password"),
		AuthCookieHeader: getString("auth-cookie"),

		ParamWhitelist:      getSlice("param-whitelist"),
		ParamBlacklist:      getSlice("param-blacklist"),
		NormalizeParamOrder: getBool("normalize-param-order"),

		UserAgent:      getString("user-agent"),
		ObeyRobots:     !getBool("ignore-robots"),
		MaxConcurrency: getInt("concurrency"),
		DelayMS:        getInt("delay"),
		TimeoutSeconds: getInt("timeout"),
		MaxPages:       getInt("max-pages"),
		MaxDepth:       getInt("max-depth"),

		RecurringSchedule: schedule,
		IsActive:          true,
	}
	if p.Name == "" {
		p.Name = p.Domain
	}
	if p.UserAgent == "" {
		p.UserAgent = cfg.UserAgent
	}

	if err := store.CreateProject(p); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	fmt.Printf("Created project %s\n", p.ID)
	fmt.Printf("  Name: %s\n", p.Name)
	fmt.Printf("  Seed URL: %s\n", p.FullDomainURL())
	if p.HasSchedule() {
		fmt.Printf("  Schedule: %s\n", p.RecurringSchedule)
	}
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	projects, err := store.ListProjects(cfg.Tenant)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tSCHEDULE\tACTIVE\tLAST AUDIT")
	for _, p := range projects {
		lastAudit := "never"
		if p.LastAuditAt != nil {
			lastAudit = p.LastAuditAt.Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
			p.ID, p.Name, p.Domain, p.RecurringSchedule, p.IsActive, lastAudit)
	}
	return w.Flush()
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.SoftDeleteProject(cfg.Tenant, args[0]); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}

func parseAuthType(s string) (audit.AuthType, error) {
	switch audit.AuthType(s) {
	case audit.AuthNone, audit.AuthBasic, audit.AuthDigest, audit.AuthCookie:
		return audit.AuthType(s), nil
	}
	return "", fmt.Errorf("unknown auth type %q (none, basic, digest, cookie)", s)
}

func parseSchedule(s string) (audit.Schedule, error) {
	switch audit.Schedule(s) {
	case audit.ScheduleNone, audit.ScheduleDaily, audit.ScheduleWeekly, audit.ScheduleMonthly:
		return audit.Schedule(s), nil
	}
	return "", fmt.Errorf("unknown schedule %q (none, daily, weekly, monthly)", s)
}
