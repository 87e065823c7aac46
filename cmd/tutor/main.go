package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codetutor/internal/config"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	symbolsPath string
	patternPath string

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "codetutor - sanitization pipeline for generated lesson examples",
	Long: `codetutor repairs and validates LLM-generated Python examples before
they reach a learner.

Generated code arrives with broken indentation, imports buried inside
functions, and references to files that do not exist. The pipeline
re-derives block structure from content, hoists and synthesizes imports
against a symbol table, and rejects code that depends on external
resources. Rejected code is returned unmodified so it can never be
mistaken for vetted output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if symbolsPath != "" {
			cfg.Sanitize.SymbolTableSource = symbolsPath
		}
		if patternPath != "" {
			cfg.Sanitize.ForbiddenPatternSet = patternPath
		}

		zcfg := zap.NewProductionConfig()
		if cfg.Logging.Format == "console" {
			zcfg.Encoding = "console"
		}
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else if lvl, lerr := zapcore.ParseLevel(cfg.Logging.Level); lerr == nil {
			zcfg.Level = zap.NewAtomicLevelAt(lvl)
		}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "codetutor.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVar(&symbolsPath, "symbols", "", "symbol table YAML (overrides config)")
	rootCmd.PersistentFlags().StringVar(&patternPath, "patterns", "", "forbidden pattern YAML (overrides config)")

	rootCmd.AddCommand(sanitizeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
