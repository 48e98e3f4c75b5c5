// Package storage is the persistence facade used by every consumer of the
// choir library. A Service wraps one Backend (relational or key-value),
// chosen once at startup, and layers the collection operations on top of the
// backend's whole-collection load and save primitives.
//
// # Failure semantics
//
// Reads never fail once the service is initialized: a backend read error is
// logged and an empty collection (or default settings) is returned. Writes
// return their error to the caller.
//
// # Usage
//
//	svc := storage.NewService(kvstore.NewOsStore("./data"))
//	if err := svc.Init(ctx); err != nil {
//		log.Fatalf("Failed to initialize storage: %v", err)
//	}
//	song, err := svc.AddSong(ctx, entities.Song{Title: "Amazing Grace", Category: "Hymns"})
package storage

import (
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/verses"
)

type Service struct {
	backend Backend
	now     func() time.Time

	// mu serializes read-modify-write sequences on whole collections.
	mu          sync.Mutex
	initialized atomic.Bool
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend, now: nowMillis}
}

// nowMillis matches the millisecond precision of exported timestamps.
func nowMillis() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Init prepares the backend. It must be called once before any other method.
func (s *Service) Init(ctx context.Context) error {
	if s.backend == nil {
		return fmt.Errorf("%w: no backend configured", ErrBackendUnavailable)
	}
	if err := s.backend.Init(ctx); err != nil {
		return err
	}
	s.initialized.Store(true)
	log.Printf("Storage initialized (%s backend)", s.backend.Name())
	return nil
}

// BackendName returns the active backend name, or "none".
func (s *Service) BackendName() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.backend.Ping(ctx)
}

func (s *Service) Close() error {
	if s.backend == nil {
		return nil
	}
	s.initialized.Store(false)
	return s.backend.Close()
}

func (s *Service) ready() error {
	if !s.initialized.Load() {
		return ErrNotInitialized
	}
	return nil
}

func loadOrEmpty[T any](what string, load func() ([]T, error)) []T {
	items, err := load()
	if err != nil {
		log.Printf("Error loading %s: %v", what, err)
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

// --- Songs ---

func (s *Service) LoadSongs(ctx context.Context) ([]entities.Song, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.loadSongs(ctx), nil
}

func (s *Service) loadSongs(ctx context.Context) []entities.Song {
	return loadOrEmpty("songs", func() ([]entities.Song, error) { return s.backend.LoadSongs(ctx) })
}

func (s *Service) SaveSongs(ctx context.Context, songs []entities.Song) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSongs(ctx, songs)
}

func (s *Service) saveSongs(ctx context.Context, songs []entities.Song) error {
	if err := s.backend.SaveSongs(ctx, songs); err != nil {
		return fmt.Errorf("save songs: %w", err)
	}
	return nil
}

func (s *Service) GetSong(ctx context.Context, id string) (*entities.Song, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	songs := s.loadSongs(ctx)
	i := slices.IndexFunc(songs, func(song entities.Song) bool { return song.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	return &songs[i], nil
}

// AddSong prepends the song to the collection and refreshes category counts.
// A missing category is stored as entities.UncategorizedLabel; a category
// given by name is stored as that category's id.
func (s *Service) AddSong(ctx context.Context, song entities.Song) (*entities.Song, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if song.ID == "" {
		song.ID = GenerateID()
	}
	if song.DateAdded.IsZero() {
		song.DateAdded = s.now()
	}
	categories := s.loadCategories(ctx)
	song.Category = resolveCategory(categories, song.Category)

	songs := append([]entities.Song{song}, s.loadSongs(ctx)...)
	if err := s.saveSongs(ctx, songs); err != nil {
		return nil, err
	}
	if err := s.recomputeCategoryCounts(ctx, categories, songs); err != nil {
		return nil, err
	}
	return &song, nil
}

// UpdateSong applies fn to the stored song and rewrites the collection.
func (s *Service) UpdateSong(ctx context.Context, id string, fn func(*entities.Song)) (*entities.Song, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := s.loadSongs(ctx)
	i := slices.IndexFunc(songs, func(song entities.Song) bool { return song.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	fn(&songs[i])
	songs[i].ID = id

	categories := s.loadCategories(ctx)
	songs[i].Category = resolveCategory(categories, songs[i].Category)

	if err := s.saveSongs(ctx, songs); err != nil {
		return nil, err
	}
	if err := s.recomputeCategoryCounts(ctx, categories, songs); err != nil {
		return nil, err
	}
	updated := songs[i]
	return &updated, nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id string) (*entities.Song, error) {
	return s.UpdateSong(ctx, id, func(song *entities.Song) {
		song.IsFavorite = !song.IsFavorite
	})
}

func (s *Service) DeleteSong(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	songs := s.loadSongs(ctx)
	remaining := slices.DeleteFunc(slices.Clone(songs), func(song entities.Song) bool { return song.ID == id })
	if len(remaining) == len(songs) {
		return fmt.Errorf("song %s: %w", id, ErrNotFound)
	}
	if err := s.saveSongs(ctx, remaining); err != nil {
		return err
	}
	return s.recomputeCategoryCounts(ctx, s.loadCategories(ctx), remaining)
}

// --- Members ---

func (s *Service) LoadMembers(ctx context.Context) ([]entities.Member, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.loadMembers(ctx), nil
}

func (s *Service) loadMembers(ctx context.Context) []entities.Member {
	return loadOrEmpty("members", func() ([]entities.Member, error) { return s.backend.LoadMembers(ctx) })
}

func (s *Service) SaveMembers(ctx context.Context, members []entities.Member) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMembers(ctx, members)
}

func (s *Service) saveMembers(ctx context.Context, members []entities.Member) error {
	if err := s.backend.SaveMembers(ctx, members); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	return nil
}

func (s *Service) GetMember(ctx context.Context, id string) (*entities.Member, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	members := s.loadMembers(ctx)
	i := slices.IndexFunc(members, func(m entities.Member) bool { return m.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return &members[i], nil
}

func (s *Service) AddMember(ctx context.Context, member entities.Member) (*entities.Member, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if member.ID == "" {
		member.ID = GenerateID()
	}
	if member.DateAdded.IsZero() {
		member.DateAdded = s.now()
	}
	members := append([]entities.Member{member}, s.loadMembers(ctx)...)
	if err := s.saveMembers(ctx, members); err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) UpdateMember(ctx context.Context, id string, fn func(*entities.Member)) (*entities.Member, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.loadMembers(ctx)
	i := slices.IndexFunc(members, func(m entities.Member) bool { return m.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	fn(&members[i])
	members[i].ID = id
	if err := s.saveMembers(ctx, members); err != nil {
		return nil, err
	}
	updated := members[i]
	return &updated, nil
}

func (s *Service) DeleteMember(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.loadMembers(ctx)
	remaining := slices.DeleteFunc(slices.Clone(members), func(m entities.Member) bool { return m.ID == id })
	if len(remaining) == len(members) {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return s.saveMembers(ctx, remaining)
}

// --- Categories ---

func (s *Service) LoadCategories(ctx context.Context) ([]entities.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.loadCategories(ctx), nil
}

func (s *Service) loadCategories(ctx context.Context) []entities.Category {
	return loadOrEmpty("categories", func() ([]entities.Category, error) { return s.backend.LoadCategories(ctx) })
}

func (s *Service) SaveCategories(ctx context.Context, categories []entities.Category) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCategories(ctx, categories)
}

func (s *Service) saveCategories(ctx context.Context, categories []entities.Category) error {
	if err := s.backend.SaveCategories(ctx, categories); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*entities.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	categories := s.loadCategories(ctx)
	i := slices.IndexFunc(categories, func(c entities.Category) bool { return c.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return &categories[i], nil
}

// AddCategory appends the category. Songs already referring to it by name
// are counted immediately.
func (s *Service) AddCategory(ctx context.Context, category entities.Category) (*entities.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if category.ID == "" {
		category.ID = GenerateID()
	}
	if category.DateCreated.IsZero() {
		category.DateCreated = s.now()
	}
	category.SongCount = 0

	categories := s.loadCategories(ctx)
	if categoryNameTaken(categories, category.Name, category.ID) {
		return nil, fmt.Errorf("category %q: %w", category.Name, ErrDuplicateName)
	}
	categories = append(categories, category)
	if err := s.recomputeCategoryCounts(ctx, categories, s.loadSongs(ctx)); err != nil {
		return nil, err
	}
	i := slices.IndexFunc(categories, func(c entities.Category) bool { return c.ID == category.ID })
	return &categories[i], nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, fn func(*entities.Category)) (*entities.Category, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := s.loadCategories(ctx)
	i := slices.IndexFunc(categories, func(c entities.Category) bool { return c.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	updated := categories[i]
	fn(&updated)
	updated.ID = id
	if categoryNameTaken(categories, updated.Name, id) {
		return nil, fmt.Errorf("category %q: %w", updated.Name, ErrDuplicateName)
	}
	categories[i] = updated
	if err := s.recomputeCategoryCounts(ctx, categories, s.loadSongs(ctx)); err != nil {
		return nil, err
	}
	updated = categories[i]
	return &updated, nil
}

func categoryNameTaken(categories []entities.Category, name, exceptID string) bool {
	name = strings.TrimSpace(name)
	return slices.ContainsFunc(categories, func(c entities.Category) bool {
		return c.ID != exceptID && strings.EqualFold(strings.TrimSpace(c.Name), name)
	})
}

// DeleteCategory removes the category. Songs filed under it keep their
// category reference.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	categories := s.loadCategories(ctx)
	remaining := slices.DeleteFunc(slices.Clone(categories), func(c entities.Category) bool { return c.ID == id })
	if len(remaining) == len(categories) {
		return fmt.Errorf("category %s: %w", id, ErrNotFound)
	}
	return s.saveCategories(ctx, remaining)
}

// RecomputeCategoryCounts re-derives every category's song count from the
// current song list and rewrites all categories.
func (s *Service) RecomputeCategoryCounts(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recomputeCategoryCounts(ctx, s.loadCategories(ctx), s.loadSongs(ctx))
}

func (s *Service) recomputeCategoryCounts(ctx context.Context, categories []entities.Category, songs []entities.Song) error {
	updated := CountSongsByCategory(categories, songs)
	if err := s.saveCategories(ctx, updated); err != nil {
		return fmt.Errorf("recompute category counts: %w", err)
	}
	return nil
}

// CountSongsByCategory returns a copy of categories with SongCount set to the
// number of songs whose category field equals the category's id or name.
func CountSongsByCategory(categories []entities.Category, songs []entities.Song) []entities.Category {
	counts := make(map[string]int, len(categories))
	for _, song := range songs {
		if song.HasCategory() {
			counts[song.Category]++
		}
	}

	updated := make([]entities.Category, len(categories))
	for i, category := range categories {
		n := counts[category.ID]
		if category.Name != category.ID {
			n += counts[category.Name]
		}
		category.SongCount = n
		updated[i] = category
	}
	return updated
}

// resolveCategory maps a user-supplied category value to the stored form:
// an existing category's id when the value names one, the fallback label when
// empty, and the raw value otherwise.
func resolveCategory(categories []entities.Category, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return entities.UncategorizedLabel
	}
	for _, c := range categories {
		if c.ID == value {
			return c.ID
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, value) {
			return c.ID
		}
	}
	return value
}

// --- Choirs ---

func (s *Service) LoadChoirs(ctx context.Context) ([]entities.Choir, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.loadChoirs(ctx), nil
}

func (s *Service) loadChoirs(ctx context.Context) []entities.Choir {
	return loadOrEmpty("choirs", func() ([]entities.Choir, error) { return s.backend.LoadChoirs(ctx) })
}

func (s *Service) SaveChoirs(ctx context.Context, choirs []entities.Choir) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveChoirs(ctx, choirs)
}

func (s *Service) saveChoirs(ctx context.Context, choirs []entities.Choir) error {
	if err := s.backend.SaveChoirs(ctx, choirs); err != nil {
		return fmt.Errorf("save choirs: %w", err)
	}
	return nil
}

func (s *Service) GetChoir(ctx context.Context, id string) (*entities.Choir, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	choirs := s.loadChoirs(ctx)
	i := slices.IndexFunc(choirs, func(c entities.Choir) bool { return c.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("choir %s: %w", id, ErrNotFound)
	}
	return &choirs[i], nil
}

func (s *Service) AddChoir(ctx context.Context, choir entities.Choir) (*entities.Choir, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if choir.ID == "" {
		choir.ID = GenerateID()
	}
	if choir.DateCreated.IsZero() {
		choir.DateCreated = s.now()
	}
	if choir.Members == nil {
		choir.Members = []string{}
	}
	choirs := append([]entities.Choir{choir}, s.loadChoirs(ctx)...)
	if err := s.saveChoirs(ctx, choirs); err != nil {
		return nil, err
	}
	return &choir, nil
}

func (s *Service) UpdateChoir(ctx context.Context, id string, fn func(*entities.Choir)) (*entities.Choir, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	choirs := s.loadChoirs(ctx)
	i := slices.IndexFunc(choirs, func(c entities.Choir) bool { return c.ID == id })
	if i < 0 {
		return nil, fmt.Errorf("choir %s: %w", id, ErrNotFound)
	}
	fn(&choirs[i])
	choirs[i].ID = id
	if err := s.saveChoirs(ctx, choirs); err != nil {
		return nil, err
	}
	updated := choirs[i]
	return &updated, nil
}

func (s *Service) DeleteChoir(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	choirs := s.loadChoirs(ctx)
	remaining := slices.DeleteFunc(slices.Clone(choirs), func(c entities.Choir) bool { return c.ID == id })
	if len(remaining) == len(choirs) {
		return fmt.Errorf("choir %s: %w", id, ErrNotFound)
	}
	return s.saveChoirs(ctx, remaining)
}

// --- Settings and verse rotation ---

// LoadSettings returns the saved settings, or the defaults when none are
// saved or they cannot be read.
func (s *Service) LoadSettings(ctx context.Context) (entities.AppSettings, error) {
	if err := s.ready(); err != nil {
		return entities.AppSettings{}, err
	}
	return s.loadSettings(ctx), nil
}

func (s *Service) loadSettings(ctx context.Context) entities.AppSettings {
	settings, err := s.backend.LoadSettings(ctx)
	if err != nil {
		log.Printf("Error loading settings: %v", err)
		return entities.DefaultSettings()
	}
	if settings == nil {
		return entities.DefaultSettings()
	}
	return *settings
}

func (s *Service) SaveSettings(ctx context.Context, settings entities.AppSettings) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveSettings(ctx, settings)
}

// UpdateSettings applies fn to the current settings and saves the result in
// while holding the collection lock.
func (s *Service) UpdateSettings(ctx context.Context, fn func(*entities.AppSettings)) (entities.AppSettings, error) {
	if err := s.ready(); err != nil {
		return entities.AppSettings{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.loadSettings(ctx)
	fn(&settings)
	if err := s.saveSettings(ctx, settings); err != nil {
		return entities.AppSettings{}, err
	}
	return settings, nil
}

func (s *Service) saveSettings(ctx context.Context, settings entities.AppSettings) error {
	if err := s.backend.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// ShouldRotateVerse reports whether the verse of the day is due for rotation
// under the given frequency. Read failures answer true.
func (s *Service) ShouldRotateVerse(ctx context.Context, frequency entities.VerseRotationFrequency) (bool, error) {
	if err := s.ready(); err != nil {
		return false, err
	}
	last, err := s.backend.LastVerseDate(ctx)
	if err != nil {
		log.Printf("Error checking verse rotation: %v", err)
		return true, nil
	}
	return verses.ShouldRotate(frequency, last, s.now()), nil
}

func (s *Service) UpdateLastVerseDate(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.backend.SetLastVerseDate(ctx, s.now().UTC()); err != nil {
		return fmt.Errorf("update last verse date: %w", err)
	}
	return nil
}

// ResetAllData clears songs, members, categories and choirs.
func (s *Service) ResetAllData(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Reset(ctx); err != nil {
		return fmt.Errorf("reset data: %w", err)
	}
	log.Printf("All library data reset (%s backend)", s.backend.Name())
	return nil
}
