package audio

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/choirbook/internal/entities"
)

var ErrInvalidSongID = errors.New("invalid song id for attachment")

// Store copies an attachment for songID into mediaDir as
// "<songID>-<name>" and probes it. Files that are not supported audio are
// removed again and ErrUnsupportedFormat is returned.
func Store(mediaDir, songID, name string, src io.Reader) (*entities.AudioFile, error) {
	if songID == "" || songID == "." || songID == ".." || strings.ContainsAny(songID, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}
	if err := os.MkdirAll(mediaDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}

	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "audio"
	}
	dst := filepath.Join(mediaDir, songID+"-"+base)
	if rel, err := filepath.Rel(mediaDir, dst); err != nil || rel != filepath.Base(dst) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSongID, songID)
	}

	out, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	file, err := Probe(dst)
	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			log.Printf("Failed to remove rejected audio file %s: %v", dst, rmErr)
		}
		return nil, err
	}
	file.Name = base
	return file, nil
}
