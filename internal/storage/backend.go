package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mrlokans/choirbook/internal/entities"
)

var (
	// ErrBackendUnavailable is returned when the configured backend cannot be
	// opened or prepared on this host.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
	// ErrNotInitialized is returned by Service calls made before Init.
	ErrNotInitialized = errors.New("storage service not initialized")
	ErrNotFound       = errors.New("not found")
	// ErrInvalidDocument marks an import document that is not valid JSON.
	ErrInvalidDocument = errors.New("invalid import document")
	// ErrDuplicateName is returned when a category name is already used by
	// another category, compared case-insensitively.
	ErrDuplicateName = errors.New("name already exists")
)

// Backend persists whole entity collections. Every Save* call replaces the
// full contents of the collection (replace-on-write).
type Backend interface {
	// Name identifies the backend in logs and health checks.
	Name() string
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error

	LoadSongs(ctx context.Context) ([]entities.Song, error)
	SaveSongs(ctx context.Context, songs []entities.Song) error

	LoadMembers(ctx context.Context) ([]entities.Member, error)
	SaveMembers(ctx context.Context, members []entities.Member) error

	LoadCategories(ctx context.Context) ([]entities.Category, error)
	SaveCategories(ctx context.Context, categories []entities.Category) error

	LoadChoirs(ctx context.Context) ([]entities.Choir, error)
	SaveChoirs(ctx context.Context, choirs []entities.Choir) error

	// LoadSettings returns nil, nil when no settings were saved yet.
	LoadSettings(ctx context.Context) (*entities.AppSettings, error)
	SaveSettings(ctx context.Context, settings entities.AppSettings) error

	// LastVerseDate returns nil, nil when the verse was never rotated.
	LastVerseDate(ctx context.Context) (*time.Time, error)
	SetLastVerseDate(ctx context.Context, at time.Time) error

	// Reset clears songs, members, categories and choirs. Settings survive.
	Reset(ctx context.Context) error
}
