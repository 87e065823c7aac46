package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codetutor/cmd/tutor/ui"
	"codetutor/internal/audit"
	"codetutor/internal/sanitize"
)

var statusRecent int

// statusCmd reports the active configuration and audit trail summary.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline configuration and audit summary",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusRecent, "recent", 5, "recent runs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	_, provider, err := buildPipeline()
	if err != nil {
		return err
	}

	patterns := sanitize.DefaultForbiddenPatterns()
	patternSource := "builtin"
	if cfg.Sanitize.ForbiddenPatternSet != "" {
		patterns, err = sanitize.LoadForbiddenPatterns(cfg.Sanitize.ForbiddenPatternSet)
		if err != nil {
			return err
		}
		patternSource = cfg.Sanitize.ForbiddenPatternSet
	}

	symbolSource := provider.Path()
	if symbolSource == "" {
		symbolSource = "builtin"
	}

	fmt.Fprintln(out, ui.SectionHeader(cfg.Name+" "+cfg.Version))
	fmt.Fprintf(out, "  symbol table:       %s (%d identifiers)\n", symbolSource, provider.Table().Len())
	fmt.Fprintf(out, "  forbidden patterns: %s (%d patterns)\n", patternSource, len(patterns))
	fmt.Fprintf(out, "  watch symbols:      %v\n", cfg.Sanitize.WatchSymbolTable)
	fmt.Fprintf(out, "  provider:           %s (%s)\n", cfg.Generation.Provider, cfg.Generation.Model)

	if !cfg.Audit.Enabled {
		fmt.Fprintln(out, "  audit:              disabled")
		return nil
	}

	store, err := audit.NewStore(cfg.Audit.DatabasePath)
	if err != nil {
		return fmt.Errorf("audit store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.SectionHeader("audit trail"))
	fmt.Fprintf(out, "  database:  %s\n", store.Path())
	fmt.Fprintf(out, "  runs:      %d (%d accepted, %d rejected, %d fallbacks)\n",
		stats.TotalRuns, stats.Accepted, stats.Rejected, stats.Fallbacks)

	runs, err := store.RecentRuns(cmd.Context(), statusRecent)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(out, "  %s  %-12s %-24s %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Phase,
			truncateTitle(r.LessonTitle, 24), ui.Verdict("", r.Accepted))
	}
	return nil
}

func truncateTitle(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
