// Package main implements the cxidx CLI - the batch-job entry point for
// the Incremental Cross-Indexing Engine.
//
// # File Index
//
//   - main.go - Entry point, rootCmd, global flags, init()
//   - cmd_index.go - indexCmd, runIndex() (the Run Coordinator invocation)
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"codenerd/internal/logging"
)

var (
	verbose    bool
	workspace  string
	configPath string

	logger *zap.Logger
)

// rootCmd represents the base command.
var rootCmd = &cobra.Command{
	Use:   "cxidx",
	Short: "cxidx - Incremental Cross-Indexing Engine",
	Long: `cxidx reconciles a persistent cross-project connection graph against
a queue of file-level checkpoints: it diffs changed files, reclassifies
their connections, splits new or rewritten code with an LLM-backed
analyzer, and matches outgoing connections in one project against
inbound connections in another.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := resolveWorkspace()
		if err := logging.Initialize(ws, logging.Settings{DebugMode: verbose}); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace root (defaults to cwd)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".cxidx/config.yaml", "path to config file")

	rootCmd.AddCommand(indexCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Sync()
		}
		os.Exit(1)
	}
}

func resolveWorkspace() string {
	ws := workspace
	if ws == "" {
		ws, _ = os.Getwd()
		return ws
	}
	if abs, err := filepath.Abs(ws); err == nil {
		return abs
	}
	return ws
}
