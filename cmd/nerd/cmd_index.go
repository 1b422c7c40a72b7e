package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"codenerd/internal/config"
	"codenerd/internal/coordinator"
	"codenerd/internal/logging"
	"codenerd/internal/splitter"
	"codenerd/internal/splitter/fake"
	"codenerd/internal/splitter/genai"
	"codenerd/internal/store"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Run one pass of the cross-indexing engine over the pending checkpoint queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(runIndex())
		return nil
	},
}

// runIndex loads configuration, opens the store, builds a Splitter for
// the configured provider, and drives one Run Coordinator pass. It
// returns the process exit code named in spec §6.
func runIndex() int {
	log := logging.Get(logging.CategoryBoot)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("config load failed: %v", err)
		return coordinator.ExitStoreFailure
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		log.Error("store open failed: %v", err)
		return coordinator.ExitStoreFailure
	}
	defer st.Close()

	sp, err := buildSplitter(cfg)
	if err != nil {
		log.Error("splitter init failed: %v", err)
		return coordinator.ExitSplitterFailure
	}

	coordCfg := coordinator.Config{
		AdjacencyThreshold:  cfg.AdjacencyThreshold,
		BatchLineBudget:     cfg.BatchLineBudget,
		SplitterRetries:     cfg.SplitterRetries,
		SplitterConcurrency: cfg.SplitterConcurrency,
		CPUWorkers:          cfg.CPUWorkers,
		MatcherThreshold:    cfg.MatcherThreshold,
	}

	result, exitCode, err := coordinator.Run(context.Background(), st, coordCfg, sp)
	if err != nil {
		log.Error("run aborted in state %s: %v", result.FinalState, err)
		return exitCode
	}

	log.Info("run complete: %d files processed, %d connections inserted, %d deleted, %d shifted, %d mappings written",
		result.FilesProcessed, result.ConnectionsInserted, result.ConnectionsDeleted, result.ConnectionsShifted, result.MappingsWritten)
	return exitCode
}

func buildSplitter(cfg *config.Config) (splitter.Splitter, error) {
	switch cfg.Splitter.Provider {
	case "genai":
		return genai.New(cfg.Splitter.APIKey, cfg.Splitter.Model)
	case "fake":
		return &fake.Splitter{}, nil
	default:
		return nil, fmt.Errorf("unknown splitter provider %q", cfg.Splitter.Provider)
	}
}
