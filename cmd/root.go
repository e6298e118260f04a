// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sluice/internal/config"
	"sluice/internal/httputil"
	"sluice/internal/logging"
	"sluice/internal/orchestrate"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagQuality     string
	flagLanguage    string
	flagConcurrency int
	flagTimeout     int
	flagLogLevel    string
	flagJSON        bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sluice",
	Short: "Resolve movies and shows into playable stream URLs",
	Long: `Sluice turns a movie or episode descriptor into a playable stream URL
by probing a ranked catalogue of streaming providers concurrently. It can
resolve one-shot from the CLI, serve an HTTP API, or keep prefetch buckets
warm in the background.`,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagQuality, "quality", "q", "", "Preferred quality: 360..2160 | auto")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Preferred subtitle language")
	rootCmd.PersistentFlags().IntVarP(&flagConcurrency, "concurrency", "c", 0, "Probe worker pool size")
	rootCmd.PersistentFlags().IntVarP(&flagTimeout, "timeout", "t", 0, "Overall resolution timeout in seconds")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace | debug | info | warn | error")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Force JSON output, no interactive UI")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(prefetchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if flagQuality != "" {
		cfg.Quality = flagQuality
	}
	if flagLanguage != "" {
		cfg.SubsLanguage = flagLanguage
	}
	if flagConcurrency > 0 {
		cfg.Concurrency = flagConcurrency
	}
	if flagTimeout > 0 {
		cfg.OverallTimeoutSec = flagTimeout
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(os.Stderr, cfg.LogLevel, false)
	return nil
}

// newFetcher builds the production fetcher with pacing from the config.
func newFetcher() httputil.Fetcher {
	min, max := cfg.JitterWindow()
	var pacer *httputil.Pacer
	if max > 0 {
		pacer = httputil.NewPacer(min, max)
	}
	return httputil.NewFetcher(cfg.ProbeTimeout(), pacer)
}

// newOrchestrator builds an orchestrator from the merged config.
func newOrchestrator(fetcher httputil.Fetcher, onEvent func(orchestrate.Event)) *orchestrate.Orchestrator {
	return orchestrate.New(fetcher, orchestrate.Options{
		Concurrency:    cfg.Concurrency,
		OverallTimeout: cfg.OverallTimeout(),
		ProbeTimeout:   cfg.ProbeTimeout(),
		HostOverrides:  cfg.HostOverrides,
		OnEvent:        onEvent,
	})
}
