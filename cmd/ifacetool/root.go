// Package main provides the entry point for the ifacetool CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/ifacetool/internal/config"
	"github.com/nao1215/ifacetool/internal/log"
)

// NewRootCmd creates the root command for ifacetool.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ifacetool",
		Short: "Inspect snap interface auto-connections",
		Long: `ifacetool fetches snap metadata and snap-declarations from the snap store
into a workspace directory and simulates snap installation with
ifacetool-engine to show which interfaces would be auto-connected.

Store requests are authenticated with the credentials exported by
"snapcraft export-login" in SNAPCRAFT_STORE_CREDENTIALS.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .ifacetool in workdir or home directory)")
	cmd.PersistentFlags().StringP("workdir", "C", "",
		"Workspace directory holding fetched snaps (default: current directory)")

	cmd.AddCommand(NewFetchCmd())
	cmd.AddCommand(NewAutoConnectionsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// loadConfig builds a Config from defaults, the config file and the global
// flags. Command flags are applied by the caller afterwards.
func loadConfig(cmd *cobra.Command) (*config.Config, *config.File, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, err
	}
	workDir, err := cmd.Flags().GetString("workdir")
	if err != nil {
		return nil, nil, err
	}
	if workDir == "" {
		workDir = "."
	}
	cfg.WorkDir, err = filepath.Abs(workDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve workdir: %w", err)
	}

	// An explicitly given config file must exist; otherwise a missing file
	// just means defaults.
	configPath := config.FindConfigFile(cfg.ConfigFilePath, cfg.WorkDir)
	file := &config.File{Aliases: map[string]string{}}
	switch {
	case configPath != "":
		file, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	case cfg.ConfigFilePath != "":
		return nil, nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	return cfg, file, nil
}

// setupLogger creates the credential-redacting logger and makes it the default.
func setupLogger(verbose bool) *slog.Logger {
	logger := log.NewSecureLogger(os.Stderr, verbose)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
