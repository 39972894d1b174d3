package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nao1215/ifacetool/internal/config"
	"github.com/nao1215/ifacetool/internal/fetch"
	"github.com/nao1215/ifacetool/internal/model"
)

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <snap>[@<rev>]...",
		Short: "Fetch snap metadata and snap-declarations into the workspace",
		Long: `Fetch resolves each snap's store identity, downloads the snap.yaml of the
requested revision (latest when none is given) and asks ifacetool-engine to
fetch the snap-declaration assertions.

Each snap gets a directory in the workspace holding .snap.json, snap.yaml and
revision. A path to a local .snap or snap.yaml file can be given instead of a
snap name.

Examples:
  # Fetch the latest revisions
  ifacetool fetch core network-manager

  # Pin a revision
  ifacetool fetch network-manager@1234

  # Use a locally built snap
  ifacetool fetch ./my-app_1.0_amd64.snap

  # Only resolve identities and snap-declarations
  ifacetool fetch --no-meta core`,
		Args: cobra.MinimumNArgs(1),
		RunE: runFetchCmd,
	}

	cmd.Flags().Bool("meta", true, "Fetch snap.yaml and revision")
	cmd.Flags().Bool("no-meta", false, "Do not fetch snap.yaml and revision")
	cmd.Flags().Bool("decls", true, "Fetch snap-declarations with ifacetool-engine")
	cmd.Flags().Bool("no-decls", false, "Do not fetch snap-declarations")
	cmd.MarkFlagsMutuallyExclusive("meta", "no-meta")
	cmd.MarkFlagsMutuallyExclusive("decls", "no-decls")

	return cmd
}

// fetchOptions reads the --[no-]meta and --[no-]decls flags.
func fetchOptions(cmd *cobra.Command) (fetch.Options, error) {
	var opts fetch.Options
	flags := cmd.Flags()

	meta, err := flags.GetBool("meta")
	if err != nil {
		return opts, err
	}
	noMeta, err := flags.GetBool("no-meta")
	if err != nil {
		return opts, err
	}
	decls, err := flags.GetBool("decls")
	if err != nil {
		return opts, err
	}
	noDecls, err := flags.GetBool("no-decls")
	if err != nil {
		return opts, err
	}

	opts.Meta = meta && !noMeta
	opts.Decls = decls && !noDecls
	return opts, nil
}

// runFetchCmd executes the fetch command.
func runFetchCmd(cmd *cobra.Command, args []string) error {
	cfg, file, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	opts, err := fetchOptions(cmd)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Verbose)
	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	targets, err := parseTargets(ctx, file, args)
	if err != nil {
		return err
	}

	var decls fetch.DeclFetcher
	if opts.Decls {
		e, err := newEngine(cfg, logger)
		if err != nil {
			return err
		}
		decls = e
	}

	f, closeFn, err := newFetcher(cfg, logger, decls)
	if err != nil {
		return err
	}
	defer closeFn()

	results, err := f.Fetch(ctx, targets, opts)
	if err != nil {
		names := make([]string, len(targets))
		for i, target := range targets {
			names[i] = target.Name
		}
		return withSuggestion(err, file, names)
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), fetch.Summary(results))
	return err
}

// parseTargets parses snap tokens, resolving aliases from the config file.
func parseTargets(ctx context.Context, file *config.File, args []string) ([]model.SnapAtRev, error) {
	targets := make([]model.SnapAtRev, 0, len(args))
	for _, arg := range args {
		target, err := fetch.ParseTarget(ctx, arg, nil)
		if err != nil {
			return nil, err
		}
		if target.Revision.Kind() != model.RevisionLocal {
			target.Name = file.Resolve(target.Name)
		}
		targets = append(targets, target)
	}
	return targets, nil
}
