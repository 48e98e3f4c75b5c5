// Package scheduler runs periodic library backups on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/choirbook/internal/tasks"
)

// Enqueuer hands work to the background task queue.
type Enqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

type BackupConfig struct {
	Enabled  bool
	Schedule string
}

// BackupScheduler triggers backups on a schedule. With a task queue the
// backup is enqueued; without one it is written directly.
type BackupScheduler struct {
	cfg      BackupConfig
	exporter tasks.Exporter
	writer   *tasks.BackupWriter
	queue    Enqueuer

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc

	lastRunAt time.Time
	lastErr   error
}

// NewBackupScheduler creates a scheduler. queue may be nil.
func NewBackupScheduler(cfg BackupConfig, exporter tasks.Exporter, writer *tasks.BackupWriter, queue Enqueuer) *BackupScheduler {
	return &BackupScheduler{
		cfg:      cfg,
		exporter: exporter,
		writer:   writer,
		queue:    queue,
		cron:     cron.New(cron.WithParser(parser)),
	}
}

// Start registers the backup job if backups are enabled.
func (s *BackupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		log.Printf("Backup scheduler: disabled")
		return nil
	}
	if err := ValidateCronSchedule(s.cfg.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.cfg.Schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.trigger(context.Background(), "schedule")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule backup job: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	next, _ := NextRunTime(s.cfg.Schedule, time.Now())
	log.Printf("Backup scheduler: started with schedule '%s' (%s). Next run: %v",
		s.cfg.Schedule, CronDescription(s.cfg.Schedule), next)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the scheduler and waits for a running backup job.
func (s *BackupScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	done := s.cron.Stop()
	<-done.Done()

	log.Printf("Backup scheduler: stopped")
}

// RunNow triggers a backup immediately, regardless of the schedule.
func (s *BackupScheduler) RunNow(ctx context.Context) error {
	return s.trigger(ctx, "manual")
}

func (s *BackupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the next scheduled backup occurs, or nil when the
// scheduler is stopped.
func (s *BackupScheduler) NextRun() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// LastRun reports the time and outcome of the latest trigger.
func (s *BackupScheduler) LastRun() (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRunAt, s.lastErr
}

func (s *BackupScheduler) trigger(ctx context.Context, source string) error {
	var err error
	if s.queue != nil {
		_, err = s.queue.Enqueue(tasks.BackupTask{Trigger: source})
		if err == nil {
			log.Printf("Backup (%s): enqueued", source)
		}
	} else {
		var path string
		path, err = s.writer.Write(ctx, s.exporter)
		if err == nil {
			log.Printf("Backup (%s): written to %s", source, path)
		}
	}
	if err != nil {
		log.Printf("Backup (%s) failed: %v", source, err)
	}

	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.lastErr = err
	s.mu.Unlock()
	return err
}
