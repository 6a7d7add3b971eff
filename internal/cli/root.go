// Package cli provides the command-line interface for mygo.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haneoka/mygo-cli/internal/client"
	"github.com/haneoka/mygo-cli/internal/config"
	"github.com/haneoka/mygo-cli/internal/metrics"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	serverURL string
	verbose   bool

	// Global config, logger and server client
	cfg       config.Config
	logger    *slog.Logger
	apiClient *client.Client
	collector *metrics.Collector

	logCleanup func() error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mygo",
	Short: "Terminal client for the mygo-chat server",
	Long: `mygo is a terminal client for the mygo-chat server: talk one-on-one
with a band member persona, or set up a structured debate between two teams
and watch it unfold live.

The server generates all replies; this client only keeps the conversation
and tracks debate progress.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if serverURL != "" {
			cfg.ServerURL = serverURL
		}

		logger, logCleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel, verbose)
		collector = metrics.NewCollector()
		apiClient = client.New(cfg.ServerURL, cfg.ClientTimeout)
		apiClient.SetCollector(collector)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		for op, stats := range collector.Snapshot().Operations {
			logger.Info("request stats", "op", op,
				"count", stats.Count, "failures", stats.Failures,
				"avg_ms", stats.AvgTimeMs, "max_ms", stats.MaxTimeMs)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The log file is closed here rather than in PersistentPostRun, which cobra
// skips on flag-parse errors.
func Execute() error {
	defer func() {
		if logCleanup != nil {
			_ = logCleanup()
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "server base URL (default $MYGO_SERVER_URL or http://localhost:8080)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr in addition to the log file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(debateCmd)
	rootCmd.AddCommand(charactersCmd)
	rootCmd.AddCommand(pingCmd)
}
