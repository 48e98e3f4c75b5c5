package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/choirbook/internal/database/categories"
	"github.com/mrlokans/choirbook/internal/database/choirs"
	"github.com/mrlokans/choirbook/internal/database/members"
	"github.com/mrlokans/choirbook/internal/database/settings"
	"github.com/mrlokans/choirbook/internal/database/songs"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
)

// Backend is the relational storage.Backend. The connection is opened by
// Init, not by the constructor.
type Backend struct {
	cfg Config

	mu         sync.RWMutex
	db         *Database
	songs      *songs.Repository
	members    *members.Repository
	categories *categories.Repository
	choirs     *choirs.Repository
	settings   *settings.Repository
}

func NewBackend(cfg Config) *Backend {
	return &Backend{cfg: cfg}
}

func (b *Backend) Name() string {
	return b.cfg.driver()
}

func (b *Backend) Init(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db != nil {
		return nil
	}

	db, err := NewDatabase(b.cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	b.db = db
	b.songs = songs.NewRepository(db.DB)
	b.members = members.NewRepository(db.DB)
	b.categories = categories.NewRepository(db.DB)
	b.choirs = choirs.NewRepository(db.DB)
	b.settings = settings.NewRepository(db.DB)
	return nil
}

// DB exposes the underlying connection, or nil before Init.
func (b *Backend) DB() *gorm.DB {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return nil
	}
	return b.db.DB
}

func (b *Backend) Ping(ctx context.Context) error {
	db := b.DB()
	if db == nil {
		return storage.ErrNotInitialized
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *Backend) opened() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.db == nil {
		return storage.ErrNotInitialized
	}
	return nil
}

func (b *Backend) LoadSongs(ctx context.Context) ([]entities.Song, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.songs.LoadAll(ctx)
}

func (b *Backend) SaveSongs(ctx context.Context, items []entities.Song) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.songs.ReplaceAll(ctx, items)
}

func (b *Backend) LoadMembers(ctx context.Context) ([]entities.Member, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.members.LoadAll(ctx)
}

func (b *Backend) SaveMembers(ctx context.Context, items []entities.Member) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.members.ReplaceAll(ctx, items)
}

func (b *Backend) LoadCategories(ctx context.Context) ([]entities.Category, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.categories.LoadAll(ctx)
}

func (b *Backend) SaveCategories(ctx context.Context, items []entities.Category) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.categories.ReplaceAll(ctx, items)
}

func (b *Backend) LoadChoirs(ctx context.Context) ([]entities.Choir, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.choirs.LoadAll(ctx)
}

func (b *Backend) SaveChoirs(ctx context.Context, items []entities.Choir) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.choirs.ReplaceAll(ctx, items)
}

func (b *Backend) LoadSettings(ctx context.Context) (*entities.AppSettings, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.settings.Get(ctx)
}

func (b *Backend) SaveSettings(ctx context.Context, s entities.AppSettings) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.settings.Save(ctx, s)
}

func (b *Backend) LastVerseDate(ctx context.Context) (*time.Time, error) {
	if err := b.opened(); err != nil {
		return nil, err
	}
	return b.settings.LastVerseDate(ctx)
}

func (b *Backend) SetLastVerseDate(ctx context.Context, at time.Time) error {
	if err := b.opened(); err != nil {
		return err
	}
	return b.settings.SetLastVerseDate(ctx, at)
}

// Reset clears the four collections in one transaction. Settings and the
// verse rotation record survive.
func (b *Backend) Reset(ctx context.Context) error {
	db := b.DB()
	if db == nil {
		return storage.ErrNotInitialized
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := songs.NewRepository(tx).Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear songs: %w", err)
		}
		if err := members.NewRepository(tx).Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear members: %w", err)
		}
		if err := categories.NewRepository(tx).Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}
		if err := choirs.NewRepository(tx).Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear choirs: %w", err)
		}
		return nil
	})
}
