// Command mwi is the verb dispatcher for the MyWebIntelligence-Go crawl
// engine: land/domain/heuristic verbs over a single SQLite-backed store.
//
// Exit codes follow the engine's own convention rather than the Unix
// default: 1 means success, 0 means failure (missing required argument,
// unknown Land, or unrecoverable error). Every verb prints a terminal
// "processed=N errors=N" line before exiting.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mwi/internal/config"
	"mwi/internal/logging"
	"mwi/internal/store"
)

var (
	configPath string
	verbose    bool

	cfg    *config.Config
	db     *store.Store
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "mwi",
	Short:         "MyWebIntelligence crawl engine",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		built, err := zcfg.Build()
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		logger = built

		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if verbose {
			cfg.Logging.DebugMode = true
		}

		dataDir, err := cfg.DataDir()
		if err != nil {
			return err
		}
		if err := logging.Initialize(dataDir, cfg.Logging.DebugMode); err != nil {
			logger.Warn("failed to initialize category file logging", zap.Error(err))
		}

		s, err := store.Open(dataDir + "/mwi.db")
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		db = s
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./mwi.yaml", "path to configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(dbCmd, landCmd, domainCmd, heuristicCmd)
}

// reportSummary prints the mandatory terminal (processed, errors) line.
func reportSummary(processed, errors int) {
	fmt.Printf("processed=%d errors=%d\n", processed, errors)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		reportSummary(0, 1)
		os.Exit(0)
	}
	os.Exit(1)
}
