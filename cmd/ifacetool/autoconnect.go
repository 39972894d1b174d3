package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/ifacetool/internal/config"
	"github.com/nao1215/ifacetool/internal/engine"
	"github.com/nao1215/ifacetool/internal/report"
)

// NewAutoConnectionsCmd creates the auto-connections command.
func NewAutoConnectionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auto-connections <target-snap> [<context-snap>...]",
		Short: "Simulate installing a snap and show its auto-connections",
		Long: `Auto-connections simulates installing the target snap on a device of the
given model, next to the context snaps, and reports:

- whether each snap installs, and which interfaces it declares badly
- the connections that get auto-connected, with the target side marked
  ("<plug snap>:<plug> < <slot>" or "<slot snap>:<slot> > <plug>")
- target plugs left unconnected (": <plug>")

With --candidates every connection and dangling plug is followed by the slots
or plugs that were considered and the verdict for each.

All snaps must have been fetched into the workspace first.

Examples:
  # Simulate network-manager on a generic model next to core
  ifacetool auto-connections network-manager core

  # Use a brand model and store, showing candidates for one interface
  ifacetool auto-connections --model acme/gadget --store acme-store \
    --interface network-manager --candidates network-manager core pc

  # Save a Markdown report
  ifacetool auto-connections --markdown -o report.md network-manager core`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAutoConnectionsCmd,
	}

	cmd.Flags().StringP("model", "m", config.DefaultModel, "Device model as <brand>/<model>")
	cmd.Flags().StringP("store", "s", "", "Brand store id")
	cmd.Flags().StringP("interface", "i", "", "Only report this interface")
	cmd.Flags().Bool("candidates", false, "Show candidate plugs and slots with verdicts")
	cmd.Flags().Bool("classic", false, "Simulate a classic system")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// applyAutoConnectFlags copies the command flags that were given over cfg.
func applyAutoConnectFlags(cmd *cobra.Command, cfg *config.Config, args []string) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("model") {
		if cfg.Model, err = flags.GetString("model"); err != nil {
			return err
		}
	}
	if flags.Changed("store") {
		if cfg.Store, err = flags.GetString("store"); err != nil {
			return err
		}
	}
	if flags.Changed("candidates") {
		if cfg.ShowCandidates, err = flags.GetBool("candidates"); err != nil {
			return err
		}
	}
	if flags.Changed("classic") {
		if cfg.Classic, err = flags.GetBool("classic"); err != nil {
			return err
		}
	}
	if cfg.Interface, err = flags.GetString("interface"); err != nil {
		return err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return err
	}

	if len(args) > 0 {
		cfg.TargetSnap = args[0]
		cfg.ContextSnaps = args[1:]
	}
	return nil
}

// runAutoConnectionsCmd executes the auto-connections command.
func runAutoConnectionsCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyAutoConnectFlags(cmd, cfg, args); err != nil {
		return err
	}
	cfg.TargetSnap = file.Resolve(cfg.TargetSnap)
	for i, name := range cfg.ContextSnaps {
		cfg.ContextSnaps[i] = file.Resolve(name)
	}
	if err := cfg.ValidateAutoConnect(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	brand, model, err := cfg.BrandModel()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	e, err := newEngine(cfg, logger)
	if err != nil {
		return err
	}

	// The engine needs an identity for every snap it installs.
	f, closeFn, err := newFetcher(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer closeFn()
	names := append([]string{cfg.TargetSnap}, cfg.ContextSnaps...)
	if err := f.Prepare(ctx, names); err != nil {
		return withSuggestion(err, file, names)
	}

	res, err := e.AutoConnections(ctx, engine.AutoConnectRequest{
		Brand:      brand,
		Model:      model,
		Store:      cfg.Store,
		TargetSnap: cfg.TargetSnap,
		Snaps:      cfg.ContextSnaps,
		Interface:  cfg.Interface,
		Classic:    cfg.Classic,
	})
	if err != nil {
		return err
	}

	rep, err := report.Render(res, report.Options{
		TargetSnap:     cfg.TargetSnap,
		ContextSnaps:   cfg.ContextSnaps,
		Interface:      cfg.Interface,
		ShowCandidates: cfg.ShowCandidates,
	})
	if err != nil {
		var simErr *report.SimulationError
		if errors.As(err, &simErr) {
			logger.Debug("simulation failed", "target", cfg.TargetSnap, "error", simErr.Message)
		}
		return err
	}

	logger.Debug("simulation rendered",
		"target", cfg.TargetSnap,
		"connected_plugs", rep.ConnectedPlugs(),
		"connected_slots", rep.ConnectedSlots(),
	)

	return outputReport(cfg, rep, cmd.OutOrStdout())
}

// formatWriter returns the writer for the configured report format.
func formatWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output)
	}
}

// outputReport writes the report to stdout in the requested format. With a
// report file the requested format goes to the file and the plain text to
// stdout.
func outputReport(cfg *config.Config, rep *report.Report, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		_, err := formatWriter(cfg, stdout).Write(rep)
		return err
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := report.NewMultiWriter(
		report.NewSimpleWriter(stdout),
		formatWriter(cfg, f),
	)
	_, err = w.Write(rep)
	return err
}
