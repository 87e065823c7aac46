package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"codetutor/cmd/tutor/ui"
	"codetutor/internal/sanitize"
	"codetutor/internal/symbols"
)

var (
	sanitizeInPlace  bool
	sanitizeQuiet    bool
	sanitizeParallel int
	sanitizeSubject  string
	sanitizeLesson   string
)

// sanitizeCmd repairs generated code from files or stdin.
var sanitizeCmd = &cobra.Command{
	Use:   "sanitize [file...]",
	Short: "Repair and validate generated Python code",
	Long: `Runs files (or stdin when no files are given) through the
sanitization pipeline and prints the repaired code with diagnostics.

Exit status is 0 when every input was accepted and 1 when any input was
rejected. Rejected inputs are printed unmodified.

Examples:
  tutor sanitize example.py
  cat example.py | tutor sanitize
  tutor sanitize --in-place lessons/*.py`,
	RunE: runSanitize,
}

func init() {
	sanitizeCmd.Flags().BoolVarP(&sanitizeInPlace, "in-place", "i", false, "rewrite accepted files in place")
	sanitizeCmd.Flags().BoolVarP(&sanitizeQuiet, "quiet", "q", false, "suppress diagnostics, print code only")
	sanitizeCmd.Flags().IntVarP(&sanitizeParallel, "parallel", "p", 4, "max files sanitized concurrently")
	sanitizeCmd.Flags().StringVar(&sanitizeSubject, "subject", "", "course subject for diagnostics")
	sanitizeCmd.Flags().StringVar(&sanitizeLesson, "lesson", "", "lesson title for diagnostics")
}

// buildPipeline assembles the pipeline from config: symbol table source,
// forbidden pattern set, and the shared logger.
func buildPipeline() (*sanitize.Pipeline, *symbols.Provider, error) {
	provider, err := symbols.NewProvider(cfg.Sanitize.SymbolTableSource)
	if err != nil {
		return nil, nil, fmt.Errorf("symbol table: %w", err)
	}

	patterns := sanitize.DefaultForbiddenPatterns()
	if cfg.Sanitize.ForbiddenPatternSet != "" {
		patterns, err = sanitize.LoadForbiddenPatterns(cfg.Sanitize.ForbiddenPatternSet)
		if err != nil {
			return nil, nil, fmt.Errorf("forbidden patterns: %w", err)
		}
	}

	return sanitize.NewPipeline(provider.Table(), patterns, logger), provider, nil
}

func runSanitize(cmd *cobra.Command, args []string) error {
	pipeline, _, err := buildPipeline()
	if err != nil {
		return err
	}
	reqCtx := sanitize.RequestContext{Subject: sanitizeSubject, LessonTitle: sanitizeLesson}

	if len(args) == 0 {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		res := pipeline.Sanitize(string(raw), reqCtx)
		printResult(cmd.OutOrStdout(), "<stdin>", res)
		if !res.Accepted {
			return fmt.Errorf("input rejected")
		}
		return nil
	}

	type fileResult struct {
		path string
		res  sanitize.Result
	}
	results := make([]fileResult, len(args))

	g := new(errgroup.Group)
	g.SetLimit(sanitizeParallel)
	for i, path := range args {
		g.Go(func() error {
			raw, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			res := pipeline.Sanitize(string(raw), reqCtx)
			results[i] = fileResult{path: path, res: res}
			if sanitizeInPlace && res.Accepted {
				if err := os.WriteFile(path, []byte(res.Text+"\n"), 0644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	rejected := 0
	for _, fr := range results {
		if !sanitizeInPlace {
			printResult(cmd.OutOrStdout(), fr.path, fr.res)
		} else if !sanitizeQuiet {
			printDiagnostics(cmd.OutOrStdout(), fr.path, fr.res)
		}
		if !fr.res.Accepted {
			rejected++
		}
	}

	logger.Info("sanitize batch complete",
		zap.Int("files", len(args)), zap.Int("rejected", rejected))
	if rejected > 0 {
		return fmt.Errorf("%d of %d inputs rejected", rejected, len(args))
	}
	return nil
}

func printResult(w io.Writer, name string, res sanitize.Result) {
	if len(name) > 0 && name != "<stdin>" {
		fmt.Fprintln(w, ui.FileHeader(filepath.Base(name), res.Accepted))
	}
	fmt.Fprintln(w, res.Text)
	if !sanitizeQuiet {
		printDiagnostics(w, name, res)
	}
}

func printDiagnostics(w io.Writer, name string, res sanitize.Result) {
	if len(res.Diagnostics) == 0 && res.Accepted {
		return
	}
	var sb strings.Builder
	for _, d := range res.Diagnostics {
		sb.WriteString(ui.RenderDiagnostic(d))
		sb.WriteByte('\n')
	}
	sb.WriteString(ui.Verdict(name, res.Accepted))
	fmt.Fprintln(w, sb.String())
}
