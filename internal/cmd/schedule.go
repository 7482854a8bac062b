package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seoaudit/seoaudit/internal/scheduler"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the recurring audit daemon",
	Long: `Schedule runs as a daemon and triggers audits for every active
project with a daily, weekly or monthly schedule, across all tenants.
Daily audits run at 02:00, weekly on Sunday at 03:00, monthly on the
first at 04:00. Stop with SIGINT or SIGTERM.`,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().Bool("reports", false, "Generate AI reports after each scheduled audit")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, store, logger, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	withReports, _ := cmd.Flags().GetBool("reports")
	if withReports && !cfg.LLM.ReportsConfigured() {
		logger.Warn("--reports set but LLM settings are incomplete, audits will run without reports")
		withReports = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRunner(cfg, store, logger)
	return scheduler.New(store, r, logger, withReports).Start(ctx)
}
