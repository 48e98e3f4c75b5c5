// Package kvstore is the flat key-value storage backend. Each collection is
// one JSON document stored under a fixed key, and each key is a file on an
// afero filesystem. Writes go to a temporary file that is renamed over the
// previous value.
package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/storage"
)

const (
	KeySongs         = "choir_app_songs"
	KeyMembers       = "choir_app_members"
	KeyCategories    = "choir_app_categories"
	KeyChoirs        = "choir_app_choirs"
	KeySettings      = "choir_app_settings"
	KeyLastVerseDate = "choir_app_last_verse_date"
)

// collectionKeys are the keys cleared by Reset.
var collectionKeys = []string{KeySongs, KeyMembers, KeyCategories, KeyChoirs}

type Store struct {
	fs  afero.Fs
	dir string

	mu          sync.RWMutex
	initialized bool
}

func New(fsys afero.Fs, dir string) *Store {
	return &Store{fs: fsys, dir: dir}
}

// NewOsStore stores blobs in dir on the local disk.
func NewOsStore(dir string) *Store {
	return New(afero.NewOsFs(), dir)
}

func (s *Store) Name() string {
	return "kv"
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrBackendUnavailable, err)
	}
	s.initialized = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return storage.ErrNotInitialized
	}
	_, err := s.fs.Stat(s.dir)
	return err
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = false
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// get decodes the value under key into v. It reports false when the key has
// never been written.
func (s *Store) get(key string, v any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return false, storage.ErrNotInitialized
	}

	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) set(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return storage.ErrNotInitialized
	}

	tmp := s.path(key) + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := s.fs.Rename(tmp, s.path(key)); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (s *Store) remove(key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (s *Store) LoadSongs(ctx context.Context) ([]entities.Song, error) {
	var songs []entities.Song
	if _, err := s.get(KeySongs, &songs); err != nil {
		return nil, err
	}
	for i := range songs {
		songs[i].DateAdded = songs[i].DateAdded.UTC()
	}
	slices.SortStableFunc(songs, func(a, b entities.Song) int { return b.DateAdded.Compare(a.DateAdded) })
	return songs, nil
}

func (s *Store) SaveSongs(ctx context.Context, songs []entities.Song) error {
	return s.set(KeySongs, nonNil(songs))
}

func (s *Store) LoadMembers(ctx context.Context) ([]entities.Member, error) {
	var members []entities.Member
	if _, err := s.get(KeyMembers, &members); err != nil {
		return nil, err
	}
	for i := range members {
		members[i].DateAdded = members[i].DateAdded.UTC()
	}
	slices.SortStableFunc(members, func(a, b entities.Member) int { return b.DateAdded.Compare(a.DateAdded) })
	return members, nil
}

func (s *Store) SaveMembers(ctx context.Context, members []entities.Member) error {
	return s.set(KeyMembers, nonNil(members))
}

func (s *Store) LoadCategories(ctx context.Context) ([]entities.Category, error) {
	var categories []entities.Category
	if _, err := s.get(KeyCategories, &categories); err != nil {
		return nil, err
	}
	for i := range categories {
		categories[i].DateCreated = categories[i].DateCreated.UTC()
	}
	slices.SortStableFunc(categories, func(a, b entities.Category) int { return strings.Compare(a.Name, b.Name) })
	return categories, nil
}

func (s *Store) SaveCategories(ctx context.Context, categories []entities.Category) error {
	return s.set(KeyCategories, nonNil(categories))
}

func (s *Store) LoadChoirs(ctx context.Context) ([]entities.Choir, error) {
	var choirs []entities.Choir
	if _, err := s.get(KeyChoirs, &choirs); err != nil {
		return nil, err
	}
	for i := range choirs {
		choirs[i].DateCreated = choirs[i].DateCreated.UTC()
		if choirs[i].Members == nil {
			choirs[i].Members = []string{}
		}
	}
	slices.SortStableFunc(choirs, func(a, b entities.Choir) int { return b.DateCreated.Compare(a.DateCreated) })
	return choirs, nil
}

func (s *Store) SaveChoirs(ctx context.Context, choirs []entities.Choir) error {
	return s.set(KeyChoirs, nonNil(choirs))
}

func (s *Store) LoadSettings(ctx context.Context) (*entities.AppSettings, error) {
	var settings entities.AppSettings
	found, err := s.get(KeySettings, &settings)
	if err != nil || !found {
		return nil, err
	}
	return &settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings entities.AppSettings) error {
	return s.set(KeySettings, settings)
}

func (s *Store) LastVerseDate(ctx context.Context) (*time.Time, error) {
	var last time.Time
	found, err := s.get(KeyLastVerseDate, &last)
	if err != nil || !found {
		return nil, err
	}
	last = last.UTC()
	return &last, nil
}

func (s *Store) SetLastVerseDate(ctx context.Context, at time.Time) error {
	return s.set(KeyLastVerseDate, at.UTC())
}

// Reset removes the four collection keys. Settings and the last verse date
// are kept.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return storage.ErrNotInitialized
	}
	var errs []error
	for _, key := range collectionKeys {
		if err := s.remove(key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
