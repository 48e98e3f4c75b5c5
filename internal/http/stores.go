package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/events"
	"github.com/mrlokans/choirbook/internal/storage"
)

// This file consolidates the store interfaces used by HTTP controllers.
// Each controller depends on its own narrow interface; *storage.Service
// satisfies all of them.

type SongStore interface {
	LoadSongs(ctx context.Context) ([]entities.Song, error)
	LoadCategories(ctx context.Context) ([]entities.Category, error)
	GetSong(ctx context.Context, id string) (*entities.Song, error)
	AddSong(ctx context.Context, song entities.Song) (*entities.Song, error)
	UpdateSong(ctx context.Context, id string, fn func(*entities.Song)) (*entities.Song, error)
	ToggleFavorite(ctx context.Context, id string) (*entities.Song, error)
	DeleteSong(ctx context.Context, id string) error
}

type MemberStore interface {
	LoadMembers(ctx context.Context) ([]entities.Member, error)
	GetMember(ctx context.Context, id string) (*entities.Member, error)
	AddMember(ctx context.Context, member entities.Member) (*entities.Member, error)
	UpdateMember(ctx context.Context, id string, fn func(*entities.Member)) (*entities.Member, error)
	DeleteMember(ctx context.Context, id string) error
}

type CategoryStore interface {
	LoadCategories(ctx context.Context) ([]entities.Category, error)
	LoadSongs(ctx context.Context) ([]entities.Song, error)
	GetCategory(ctx context.Context, id string) (*entities.Category, error)
	AddCategory(ctx context.Context, category entities.Category) (*entities.Category, error)
	UpdateCategory(ctx context.Context, id string, fn func(*entities.Category)) (*entities.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	RecomputeCategoryCounts(ctx context.Context) error
}

type ChoirStore interface {
	LoadChoirs(ctx context.Context) ([]entities.Choir, error)
	GetChoir(ctx context.Context, id string) (*entities.Choir, error)
	AddChoir(ctx context.Context, choir entities.Choir) (*entities.Choir, error)
	UpdateChoir(ctx context.Context, id string, fn func(*entities.Choir)) (*entities.Choir, error)
	DeleteChoir(ctx context.Context, id string) error
}

type SettingsStore interface {
	LoadSettings(ctx context.Context) (entities.AppSettings, error)
	SaveSettings(ctx context.Context, settings entities.AppSettings) error
	UpdateSettings(ctx context.Context, fn func(*entities.AppSettings)) (entities.AppSettings, error)
	ShouldRotateVerse(ctx context.Context, frequency entities.VerseRotationFrequency) (bool, error)
	UpdateLastVerseDate(ctx context.Context) error
}

type DataStore interface {
	ExportData(ctx context.Context) ([]byte, error)
	ImportData(ctx context.Context, data []byte) (*storage.ImportResult, error)
	ResetAllData(ctx context.Context) error
	RecomputeCategoryCounts(ctx context.Context) error
	Stats(ctx context.Context) (*storage.Stats, error)
}

// HealthChecker reports whether the active backend answers.
type HealthChecker interface {
	BackendName() string
	Ping(ctx context.Context) error
}

// --- Collaborators ---

// Publisher announces successful writes to other consumers.
type Publisher interface {
	Emit(event string, payload any)
}

// Subscriber hands out channel subscriptions for the event stream.
type Subscriber interface {
	Subscribe(buffer int, names ...string) (<-chan events.Event, func())
}

// TaskEnqueuer queues background work. *tasks.Client satisfies it.
type TaskEnqueuer interface {
	Enqueue(tasks ...backlite.Task) ([]string, error)
}

// TaskQueue adds status lookups to TaskEnqueuer.
type TaskQueue interface {
	TaskEnqueuer
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// BackupRunner writes a backup on demand and reports the schedule.
// *scheduler.BackupScheduler satisfies it.
type BackupRunner interface {
	RunNow(ctx context.Context) error
	IsRunning() bool
	NextRun() *time.Time
	LastRun() (time.Time, error)
}

// Library combines every store interface. *storage.Service implements it.
type Library interface {
	SongStore
	MemberStore
	CategoryStore
	ChoirStore
	SettingsStore
	DataStore
	HealthChecker
}
