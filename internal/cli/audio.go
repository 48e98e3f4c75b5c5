package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mrlokans/choirbook/internal/audio"
	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
)

func newAttachAudioCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:     "attach-audio <song-id> <file>",
		Short:   "Copy a WAV or MP3 file into the media directory and attach it to a song",
		Example: "  choirbook attach-audio loyw3v28a1b2c3d4e5 ./amazing-grace-alto.mp3",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			songID, path := args[0], args[1]
			return deps.withLibrary(cmd.Context(), func(cfg *config.Config, library *storage.Service) error {
				ctx := cmd.Context()
				if _, err := library.GetSong(ctx, songID); err != nil {
					return err
				}

				src, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open audio file: %w", err)
				}
				defer src.Close()

				file, err := audio.Store(cfg.Media.Dir, songID, filepath.Base(path), src)
				if err != nil {
					return err
				}
				song, err := library.UpdateSong(ctx, songID, func(s *entities.Song) {
					s.AudioFile = file
				})
				if err != nil {
					return err
				}

				if deps.globals.JSON {
					return printJSON(deps.out, song)
				}
				duration := time.Duration(file.DurationMs) * time.Millisecond
				_, err = fmt.Fprintf(deps.out, "attached %s (%s, %s, %s) to %q\n",
					file.Name, file.MimeType, humanize.Bytes(uint64(file.Size)), duration.Round(time.Second), song.Title)
				return err
			})
		},
	}
}
