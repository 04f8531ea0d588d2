// Package commands provides the CLI commands for the zmachine web server.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zmachine-ai/zmachine-web/internal/config"
	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel  string
	prettyLog bool
)

var rootCmd = &cobra.Command{
	Use:   "zmachine",
	Short: "Web front-end and session broker for a Z-machine interpreter",
	Long: `zmachine serves classic interactive fiction over HTTP. Each player
session maps to an isolated save file, and every command runs one
single-shot interpreter process against it.

Run 'zmachine serve' to start the server.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&prettyLog, "pretty-log", false, "Human-readable console logs")

	rootCmd.SetVersionTemplate(fmt.Sprintf("zmachine %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(purgeCmd)
	rootCmd.AddCommand(gamesCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and initializes logging from it, letting
// the --log-level flag win over the environment.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logging.Init(logging.Config{
		Level:  logging.ParseLevel(level),
		Pretty: prettyLog,
	})

	return cfg, nil
}
