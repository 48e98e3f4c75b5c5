package tasks

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mikestefanello/backlite"
	"github.com/spf13/afero"
)

// BackupQueue is the queue name of BackupTask.
const BackupQueue = "backup_export"

const (
	backupPrefix     = "choirbook-"
	backupTimeLayout = "20060102-150405.000"
)

// Exporter renders the library as a JSON document.
type Exporter interface {
	ExportData(ctx context.Context) ([]byte, error)
}

// BackupWriter writes export snapshots into Dir and keeps the newest Keep
// files.
type BackupWriter struct {
	Fs   afero.Fs
	Dir  string
	Keep int

	Now func() time.Time
}

func NewBackupWriter(dir string, keep int) *BackupWriter {
	return &BackupWriter{Fs: afero.NewOsFs(), Dir: dir, Keep: keep, Now: time.Now}
}

// Write exports the library and prunes old backups. It returns the path of
// the new file.
func (w *BackupWriter) Write(ctx context.Context, exporter Exporter) (string, error) {
	data, err := exporter.ExportData(ctx)
	if err != nil {
		return "", fmt.Errorf("export data: %w", err)
	}
	if err := w.Fs.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	path, err := w.freePath(now().UTC())
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(w.Fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	log.Printf("Backup written to %s (%s)", path, humanize.Bytes(uint64(len(data))))

	removed, err := w.prune()
	if err != nil {
		return path, fmt.Errorf("prune backups: %w", err)
	}
	if removed > 0 {
		log.Printf("Pruned %d old backups", removed)
	}
	return path, nil
}

// freePath names the backup taken at "at", stepping forward a millisecond
// while the name is taken so every write keeps its own file.
func (w *BackupWriter) freePath(at time.Time) (string, error) {
	for {
		path := filepath.Join(w.Dir, backupPrefix+at.Format(backupTimeLayout)+".json")
		exists, err := afero.Exists(w.Fs, path)
		if err != nil {
			return "", fmt.Errorf("check backup path: %w", err)
		}
		if !exists {
			return path, nil
		}
		at = at.Add(time.Millisecond)
	}
}

// List returns backup file names, newest first.
func (w *BackupWriter) List() ([]string, error) {
	entries, err := afero.ReadDir(w.Fs, w.Dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), backupPrefix) && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	// The timestamp layout sorts lexically.
	slices.Sort(names)
	slices.Reverse(names)
	return names, nil
}

func (w *BackupWriter) prune() (int, error) {
	if w.Keep <= 0 {
		return 0, nil
	}
	names, err := w.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, name := range names[min(w.Keep, len(names)):] {
		if err := w.Fs.Remove(filepath.Join(w.Dir, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// BackupTask writes one export snapshot to the backup directory.
type BackupTask struct {
	Trigger string `json:"trigger,omitempty"`
}

func (t BackupTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        BackupQueue,
		MaxAttempts: 2,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   7 * 24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func BackupProcessor(exporter Exporter, writer *BackupWriter) backlite.QueueProcessor[BackupTask] {
	return func(ctx context.Context, task BackupTask) error {
		if exporter == nil || writer == nil {
			return fmt.Errorf("backup not configured")
		}
		path, err := writer.Write(ctx, exporter)
		if err != nil {
			return err
		}
		log.Printf("[TASK] Backup (%s) complete: %s", task.Trigger, path)
		return nil
	}
}

func NewBackupQueue(exporter Exporter, writer *BackupWriter) backlite.Queue {
	return backlite.NewQueue(BackupProcessor(exporter, writer))
}
