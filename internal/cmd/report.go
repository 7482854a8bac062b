package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and read AI reports",
}

var reportGenerateCmd = &cobra.Command{
	Use:   "generate AUDIT_ID",
	Short: "Generate the AI report for a completed audit",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportGenerate,
}

var reportShowCmd = &cobra.Command{
	Use:   "show AUDIT_ID",
	Short: "Print an audit's AI report as markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportShow,
}

func init() {
	reportCmd.AddCommand(reportGenerateCmd, reportShowCmd)
	rootCmd.AddCommand(reportCmd)
}

func runReportGenerate(cmd *cobra.Command, args []string) error {
	cfg, store, logger, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if !cfg.LLM.ReportsConfigured() {
		return fmt.Errorf("LLM settings incomplete: set llm.model, llm.base_url and the %s environment variable",
			cfg.LLM.APIKeyEnv)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := newRunner(cfg, store, logger)
	rep, err := r.GenerateReport(ctx, cfg.Tenant, args[0])
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	fmt.Printf("Report %s\n", rep.ID)
	fmt.Printf("  Status: %s\n", rep.Status)
	if rep.IsFailed() {
		fmt.Printf("  Error: %s\n", rep.ErrorMessage)
		return nil
	}
	fmt.Printf("  Provider: %s (%s)\n", rep.Provider, rep.Model)
	fmt.Printf("  Tokens: %d in, %d out, %d total\n",
		rep.TokensInput, rep.TokensOutput, rep.TokensTotal)
	fmt.Printf("  Estimated cost: $%.4f\n", rep.CostUSD)
	if rep.GeneratedAt != nil {
		fmt.Printf("  Generated: %s (%dms)\n",
			rep.GeneratedAt.Format(time.RFC3339), rep.GenerationDurationMS)
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	cfg, store, _, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	rep, err := store.GetAIReport(cfg.Tenant, args[0])
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	if rep.IsFailed() {
		return fmt.Errorf("report generation failed: %s", rep.ErrorMessage)
	}

	fmt.Println(rep.FullReportMarkdown())
	return nil
}
