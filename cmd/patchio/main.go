package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	protocolDir string
	cacheDir    string
	catalogPath string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "patchio",
	Short: "patchio - intracellular ephys ingestion and normalization",
	Long: `patchio loads intracellular electrophysiology recordings (ABF files,
NWB containers, LINDI snapshots, remote URLs) and normalizes them into one
uniform contract: time / response / stimulus arrays in seconds, mV or pA.

Protocol descriptors are read from layered YAML directories (--protocol-dir,
then ./protocols, then the directory next to the executable); the first
definition of a name wins.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
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
	rootCmd.PersistentFlags().StringVar(&protocolDir, "protocol-dir", "", "override protocol descriptor directory")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", defaultCacheDir(), "directory for downloaded remote containers")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", defaultCatalogPath(), "path of the recording catalog database")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(sweepsCmd)
	rootCmd.AddCommand(protocolsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(datasetsCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(listCmd)
}

func defaultCacheDir() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "patchio")
	}
	return filepath.Join(os.TempDir(), "patchio-cache")
}

func defaultCatalogPath() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "patchio", "catalog.db")
	}
	return filepath.Join(os.TempDir(), "patchio-catalog.db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
