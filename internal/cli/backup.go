package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/storage"
	"github.com/mrlokans/choirbook/internal/tasks"
)

func newBackupCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup operations",
		Example: "  choirbook backup create\n" +
			"  choirbook backup list",
	}
	cmd.AddCommand(
		newBackupCreateCommand(deps),
		newBackupListCommand(deps),
	)
	return cmd
}

func newBackupCreateCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Write an export into BACKUP_DIR and prune old backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.withLibrary(cmd.Context(), func(cfg *config.Config, library *storage.Service) error {
				writer := tasks.NewBackupWriter(cfg.Backup.Dir, cfg.Backup.Keep)
				path, err := writer.Write(cmd.Context(), library)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(deps.out, "backup written: %s\n", path)
				return err
			})
		},
	}
}

type backupInfo struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"modified"`
}

func newBackupListCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := deps.loadConfig()
			if err != nil {
				return err
			}
			writer := tasks.NewBackupWriter(cfg.Backup.Dir, cfg.Backup.Keep)
			names, err := writer.List()
			if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			infos := make([]backupInfo, 0, len(names))
			for _, name := range names {
				path := filepath.Join(cfg.Backup.Dir, name)
				st, err := os.Stat(path)
				if err != nil {
					return fmt.Errorf("failed to stat backup: %w", err)
				}
				infos = append(infos, backupInfo{Path: path, Size: st.Size(), ModTime: st.ModTime().UTC().Format("2006-01-02T15:04:05Z")})
				if !deps.globals.JSON {
					fmt.Fprintf(deps.out, "%s  %8s  %s\n", name, humanize.Bytes(uint64(st.Size())), humanize.Time(st.ModTime()))
				}
			}
			if deps.globals.JSON {
				return printJSON(deps.out, infos)
			}
			if len(infos) == 0 {
				fmt.Fprintf(deps.out, "no backups in %s\n", cfg.Backup.Dir)
			}
			return nil
		},
	}
}
