// Package cli wires the cobra command tree for the karting processor.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMaksoo/karting/internal/config"
	"github.com/TheMaksoo/karting/internal/index"
	"github.com/TheMaksoo/karting/internal/logger"
	"github.com/TheMaksoo/karting/internal/processor"
	"github.com/TheMaksoo/karting/internal/table"
)

var version = "dev"

var (
	flagVerbose    bool
	flagConfigPath string
	flagCSVPath    string
	flagDataDir    string
	flagNoIndex    bool
)

// Shared pipeline, built once in the root pre-run.
var (
	cfg       *config.Config
	store     *table.Store
	searchIdx *index.Index
	proc      *processor.Processor
)

var rootCmd = &cobra.Command{
	Use:   "karting",
	Short: "Multi-track karting session processor",
	Long: `Extracts timed karting sessions from vendor result files (SMS-Timing
and Apex-Timing emails, Lot66 and Fastkart exports), normalizes them into
a canonical lap table and distributes track pricing across laps.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		var err error
		cfg, err = config.Load(flagConfigPath)
		if err != nil {
			return err
		}

		csvPath := flagCSVPath
		if csvPath == "" {
			csvPath = cfg.CSVFile
		}
		store = table.NewStore(csvPath)

		if !flagNoIndex {
			searchIdx, err = index.Open(flagDataDir)
			if err != nil {
				// The index is a convenience; a broken one must not
				// block ingestion.
				logger.Warn("search index unavailable: %v", err)
				searchIdx = nil
			}
		}

		proc = processor.New(cfg, store, searchIdx)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if searchIdx != nil {
			_ = searchIdx.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "karting.toml", "path to the TOML configuration file")
	rootCmd.PersistentFlags().StringVar(&flagCSVPath, "csv", "", "path to the lap table CSV (defaults to the configured csv_file)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "directory for the search index database")
	rootCmd.PersistentFlags().BoolVar(&flagNoIndex, "no-index", false, "disable the search index")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("karting: %w", err)
	}
	return nil
}
