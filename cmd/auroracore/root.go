package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "auroracore",
	Short: "Observatory device gateway",
	Long: `Aurora Core - Observatory Device Gateway

Connects to an INDI device server, mirrors its property-vector tree, and
exposes the observatory over MQTT: retained state topics for every vector,
a command topic tree with per-command acknowledgments, and a notification
stream with a durable journal.

The configuration file path can also be set with the AURORA_CONFIG
environment variable; the --config flag takes precedence.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDaemon(cmd.Context())
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("auroracore %s (commit %s, built %s)\n", version, commit, date)
	},
}

// getConfigPath returns the configuration file path.
// Flag wins, then the AURORA_CONFIG environment variable, then the default.
func getConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if path := os.Getenv("AURORA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// Execute runs the root command with a signal-aware context.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}
