package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
)

func newExportCommand(deps commandDeps) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole library as a JSON document",
		Example: "  choirbook export\n" +
			"  choirbook export -o choir_app_backup.json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withLibrary(cmd.Context(), func(_ *config.Config, library *storage.Service) error {
				data, err := library.ExportData(cmd.Context())
				if err != nil {
					return err
				}
				if outputPath == "" || outputPath == "-" {
					_, err = fmt.Fprintln(deps.out, string(data))
					return err
				}
				if err := os.WriteFile(outputPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				_, err = fmt.Fprintf(deps.out, "exported %s to %s\n", humanize.Bytes(uint64(len(data))), outputPath)
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func newImportCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the collections present in an export document",
		Long: "Each collection present in the document (songs, members, choirs, settings,\n" +
			"categories) replaces the stored one. Collections missing from the document\n" +
			"are left untouched. Category song counts are recomputed afterwards.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			return deps.withLibrary(cmd.Context(), func(_ *config.Config, library *storage.Service) error {
				result, err := library.ImportData(cmd.Context(), data)
				if err != nil {
					return err
				}
				if err := library.RecomputeCategoryCounts(cmd.Context()); err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, result)
				}
				if len(result.Replaced()) == 0 {
					_, err = fmt.Fprintln(deps.out, "nothing to import")
					return err
				}
				_, err = fmt.Fprintf(deps.out, "imported %s songs, %s members, %s choirs, %s categories (replaced: %s)\n",
					humanize.Comma(int64(result.Songs)),
					humanize.Comma(int64(result.Members)),
					humanize.Comma(int64(result.Choirs)),
					humanize.Comma(int64(result.Categories)),
					strings.Join(result.Replaced(), ", "))
				return err
			})
		},
	}
}

func newResetCommand(deps commandDeps) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all songs, members, categories and choirs (settings are kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes the whole library; pass --yes to confirm")
			}
			return deps.withLibrary(cmd.Context(), func(_ *config.Config, library *storage.Service) error {
				if err := library.ResetAllData(cmd.Context()); err != nil {
					return err
				}
				_, err := fmt.Fprintln(deps.out, "library reset")
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the reset")
	return cmd
}

func newRecomputeCountsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-counts",
		Short: "Recount the songs filed under every category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withLibrary(cmd.Context(), func(_ *config.Config, library *storage.Service) error {
				if err := library.RecomputeCategoryCounts(cmd.Context()); err != nil {
					return err
				}
				categories, err := library.LoadCategories(cmd.Context())
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, categories)
				}
				for _, c := range categories {
					if _, err := fmt.Fprintf(deps.out, "%-24s %s\n", c.Name, songsLabel(c.SongCount)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func songsLabel(n int) string {
	if n == 1 {
		return "1 song"
	}
	return humanize.Comma(int64(n)) + " songs"
}

func newStatsCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withLibrary(cmd.Context(), func(_ *config.Config, library *storage.Service) error {
				stats, err := library.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, stats)
				}

				fmt.Fprintf(deps.out, "Backend:     %s\n", library.BackendName())
				fmt.Fprintf(deps.out, "Songs:       %s (%s favorites, %s with audio)\n",
					humanize.Comma(int64(stats.Songs)), humanize.Comma(int64(stats.Favorites)), humanize.Comma(int64(stats.WithAudio)))
				fmt.Fprintf(deps.out, "Categories:  %s\n", humanize.Comma(int64(stats.Categories)))
				fmt.Fprintf(deps.out, "Members:     %s\n", humanize.Comma(int64(stats.Members)))
				for _, part := range entities.VoiceParts {
					fmt.Fprintf(deps.out, "  %-10s %d\n", part, stats.VoiceParts[part])
				}
				_, err = fmt.Fprintf(deps.out, "Choirs:      %s\n", humanize.Comma(int64(stats.Choirs)))
				return err
			})
		},
	}
}
