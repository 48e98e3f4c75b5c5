// Package cli holds the choirbook command tree. Every command except serve
// and version opens the configured library, does one thing and exits.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/entrypoint"
	"github.com/mrlokans/choirbook/internal/storage"
)

type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

type globalOptions struct {
	Backend string
	JSON    bool
}

type commandDeps struct {
	out     io.Writer
	build   BuildInfo
	globals *globalOptions
	config  func() *config.Config
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	return newRootCommand(commandDeps{
		out:     out,
		build:   build,
		globals: &globalOptions{},
		config:  config.NewConfig,
	})
}

func newRootCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "choirbook",
		Short:         "Choir song, member and category library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(deps.out)
	cmd.SetErr(deps.out)

	cmd.PersistentFlags().StringVar(&deps.globals.Backend, "backend", "", "Storage backend: sqlite, postgres or kv (overrides STORAGE_BACKEND)")
	cmd.PersistentFlags().BoolVar(&deps.globals.JSON, "json", false, "Print machine-readable JSON")

	cmd.AddCommand(
		newServeCommand(deps),
		newExportCommand(deps),
		newImportCommand(deps),
		newResetCommand(deps),
		newRecomputeCountsCommand(deps),
		newStatsCommand(deps),
		newAttachAudioCommand(deps),
		newBackupCommand(deps),
		newVersionCommand(deps),
	)
	return cmd
}

// loadConfig applies the global flags on top of the environment.
func (d commandDeps) loadConfig() (*config.Config, error) {
	cfg := d.config()
	if d.globals.Backend != "" {
		cfg.Storage.Backend = d.globals.Backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withLibrary opens the library for the duration of fn.
func (d commandDeps) withLibrary(ctx context.Context, fn func(*config.Config, *storage.Service) error) error {
	cfg, err := d.loadConfig()
	if err != nil {
		return err
	}
	library, err := entrypoint.OpenLibrary(ctx, cfg)
	if err != nil {
		return err
	}
	defer library.Close()
	return fn(cfg, library)
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

func newServeCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default when no command is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig()
			if err != nil {
				return err
			}
			entrypoint.Run(cfg, deps.build.Version)
			return nil
		},
	}
}

func newVersionCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.globals.JSON {
				return printJSON(deps.out, deps.build)
			}
			_, err := fmt.Fprintf(deps.out, "version=%s commit=%s\n", deps.build.Version, deps.build.Commit)
			return err
		},
	}
}
