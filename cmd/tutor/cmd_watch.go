package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codetutor/cmd/tutor/ui"
	"codetutor/internal/sanitize"
	"codetutor/internal/symbols"
)

var watchInPlace bool

// watchCmd continuously sanitizes Python files as they change.
var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Sanitize .py files in a directory as they change",
	Long: `Watches a directory and runs every created or modified .py file
through the sanitization pipeline. With --in-place accepted files are
rewritten with the repaired text; rejected files are left untouched and
their diagnostics are printed.

When the config enables watch_symbol_table, edits to the symbol table
source are picked up live without restarting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchInPlace, "in-place", "i", false, "rewrite accepted files in place")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	_, provider, err := buildPipeline()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Sanitize.WatchSymbolTable && provider.Path() != "" {
		sw, err := symbols.NewWatcher(provider, logger)
		if err != nil {
			return fmt.Errorf("symbol watcher: %w", err)
		}
		if err := sw.Start(ctx); err != nil {
			return fmt.Errorf("symbol watcher: %w", err)
		}
		defer sw.Stop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	logger.Info("watching directory", zap.String("dir", dir))

	const debounce = 500 * time.Millisecond
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".py") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", zap.Error(err))

		case <-ticker.C:
			now := time.Now()
			for path, t := range pending {
				if now.Sub(t) < debounce {
					continue
				}
				delete(pending, path)
				sanitizeWatched(cmd, provider, path)
			}
		}
	}
}

// sanitizeWatched runs one settled file through a pipeline built against
// the current symbol table, so live reloads take effect per file.
func sanitizeWatched(cmd *cobra.Command, provider *symbols.Provider, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		logger.Error("read watched file", zap.String("path", path), zap.Error(err))
		return
	}

	patterns := sanitize.DefaultForbiddenPatterns()
	if cfg.Sanitize.ForbiddenPatternSet != "" {
		patterns, err = sanitize.LoadForbiddenPatterns(cfg.Sanitize.ForbiddenPatternSet)
		if err != nil {
			logger.Error("load patterns", zap.Error(err))
			return
		}
	}
	pipeline := sanitize.NewPipeline(provider.Table(), patterns, logger)

	res := pipeline.Sanitize(string(raw), sanitize.RequestContext{})
	out := cmd.OutOrStdout()
	printDiagnostics(out, path, res)
	if res.Accepted && watchInPlace && res.Text+"\n" != string(raw) {
		if err := os.WriteFile(path, []byte(res.Text+"\n"), 0644); err != nil {
			logger.Error("rewrite watched file", zap.String("path", path), zap.Error(err))
		}
	}
	if res.Accepted && len(res.Diagnostics) == 0 {
		fmt.Fprintln(out, ui.Verdict(path, true))
	}
}
