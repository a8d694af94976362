package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vbonduro/clawmap/internal/config"
	"github.com/vbonduro/clawmap/internal/logging"
)

var (
	envFile string

	cfg           *config.Config
	logger        *slog.Logger
	cleanupLogger = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "clawmap",
	Short: "ClawMap - community map of builders, meetups and businesses",
	Long: `ClawMap serves the community map, meetup calendar, help board and
creations gallery, and provides maintenance commands for its store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}
		cfg = config.Load()

		l, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger, cleanupLogger = l, cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		cleanupLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file merged into the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(spotsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
