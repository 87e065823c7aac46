package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codetutor/cmd/tutor/ui"
	"codetutor/internal/audit"
	"codetutor/internal/generation"
)

var (
	genTitle       string
	genDescription string
	genKeywords    []string
	genStyle       string
	genSubject     string
	genContentFile string
)

// generateCmd produces a sanitized lesson example with the configured
// provider.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a sanitized lesson example",
	Long: `Generates Python example code for a lesson, sanitizes it, and
prints the result. A rejected first attempt triggers a strict retry at
lower temperature; if every attempt is rejected a deterministic fallback
example is used. Every attempt is recorded in the audit trail.

Example:
  tutor generate --title "Train/test splits" --keywords sklearn,validation`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genTitle, "title", "", "lesson title (required)")
	generateCmd.Flags().StringVar(&genDescription, "description", "", "lesson description")
	generateCmd.Flags().StringSliceVar(&genKeywords, "keywords", nil, "lesson keywords")
	generateCmd.Flags().StringVar(&genStyle, "style", "friendly", "communication style for comments")
	generateCmd.Flags().StringVar(&genSubject, "subject", "", "course subject (inferred when empty)")
	generateCmd.Flags().StringVar(&genContentFile, "content", "", "file with lesson content")
	_ = generateCmd.MarkFlagRequired("title")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if cfg.Generation.APIKey == "" {
		return fmt.Errorf("no API key: set generation.api_key or TUTOR_API_KEY")
	}

	pipeline, _, err := buildPipeline()
	if err != nil {
		return err
	}

	var store *audit.Store
	if cfg.Audit.Enabled {
		store, err = audit.NewStore(cfg.Audit.DatabasePath)
		if err != nil {
			return fmt.Errorf("audit store: %w", err)
		}
		defer store.Close()
	}

	client, err := generation.NewGeminiClient(ctx, cfg.Generation.APIKey,
		cfg.Generation.Model, cfg.Generation.MaxTokens)
	if err != nil {
		return err
	}
	defer client.Close()

	content := ""
	if genContentFile != "" {
		data, err := os.ReadFile(genContentFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", genContentFile, err)
		}
		content = string(data)
	}

	gen := generation.NewGenerator(client, pipeline, store, logger,
		cfg.Generation.Temperature, cfg.Generation.StrictTemperature,
		cfg.Generation.MaxRegenerations)

	outcome, err := gen.Generate(ctx, generation.Request{
		LessonTitle:       genTitle,
		LessonDescription: genDescription,
		Keywords:          genKeywords,
		LessonContent:     content,
		Style:             genStyle,
		Subject:           genSubject,
	})
	if err != nil {
		return err
	}

	logger.Info("example generated",
		zap.String("phase", outcome.Phase),
		zap.Int("diagnostics", len(outcome.Diagnostics)))

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.FileHeader(genTitle, true))
	fmt.Fprintln(out, outcome.Code)
	if len(outcome.Diagnostics) > 0 {
		var sb strings.Builder
		for _, d := range outcome.Diagnostics {
			sb.WriteString(ui.RenderDiagnostic(d))
			sb.WriteByte('\n')
		}
		fmt.Fprint(out, sb.String())
	}
	if outcome.Phase != audit.PhaseInitial {
		fmt.Fprintln(out, ui.Note("produced by "+outcome.Phase))
	}
	return nil
}
