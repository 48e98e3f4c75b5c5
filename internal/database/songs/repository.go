// Package songs provides database operations for the song library.
//
// Songs are persisted replace-on-write: ReplaceAll deletes every row and
// reinserts the given collection inside one transaction.
//
// # Usage
//
//	repo := songs.NewRepository(db)
//	all, err := repo.LoadAll(ctx)
package songs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/choirbook/internal/entities"
)

const batchSize = 100

// Row is the songs table. The optional audio attachment is flattened into
// nullable audio_* columns.
type Row struct {
	ID         string `gorm:"primaryKey"`
	Title      string `gorm:"not null"`
	Lyrics     string `gorm:"not null"`
	Category   string `gorm:"not null;index"`
	Composer   string
	DateAdded  time.Time `gorm:"not null;index"`
	IsFavorite bool      `gorm:"not null"`

	AudioURI        *string `gorm:"column:audio_uri"`
	AudioName       *string `gorm:"column:audio_name"`
	AudioSize       *int64  `gorm:"column:audio_size"`
	AudioMimeType   *string `gorm:"column:audio_mime_type"`
	AudioDurationMs *int64  `gorm:"column:audio_duration_ms"`
}

func (Row) TableName() string {
	return "songs"
}

func (r Row) toEntity() entities.Song {
	song := entities.Song{
		ID:         r.ID,
		Title:      r.Title,
		Lyrics:     r.Lyrics,
		Category:   r.Category,
		Composer:   r.Composer,
		DateAdded:  r.DateAdded.UTC(),
		IsFavorite: r.IsFavorite,
	}
	if r.AudioURI != nil {
		song.AudioFile = &entities.AudioFile{URI: *r.AudioURI}
		if r.AudioName != nil {
			song.AudioFile.Name = *r.AudioName
		}
		if r.AudioSize != nil {
			song.AudioFile.Size = *r.AudioSize
		}
		if r.AudioMimeType != nil {
			song.AudioFile.MimeType = *r.AudioMimeType
		}
		if r.AudioDurationMs != nil {
			song.AudioFile.DurationMs = *r.AudioDurationMs
		}
	}
	return song
}

func fromEntity(s entities.Song) Row {
	row := Row{
		ID:         s.ID,
		Title:      s.Title,
		Lyrics:     s.Lyrics,
		Category:   s.Category,
		Composer:   s.Composer,
		DateAdded:  s.DateAdded,
		IsFavorite: s.IsFavorite,
	}
	if a := s.AudioFile; a != nil {
		row.AudioURI = &a.URI
		row.AudioName = &a.Name
		row.AudioSize = &a.Size
		if a.MimeType != "" {
			row.AudioMimeType = &a.MimeType
		}
		if a.DurationMs != 0 {
			row.AudioDurationMs = &a.DurationMs
		}
	}
	return row
}

// Repository handles all song database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new songs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadAll returns every song, newest first.
func (r *Repository) LoadAll(ctx context.Context) ([]entities.Song, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Order("date_added DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Song, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// ReplaceAll swaps the stored collection for songs atomically.
func (r *Repository) ReplaceAll(ctx context.Context, songs []entities.Song) error {
	rows := make([]Row, 0, len(songs))
	for _, s := range songs {
		rows = append(rows, fromEntity(s))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM songs").Error; err != nil {
			return fmt.Errorf("failed to clear songs: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, batchSize).Error; err != nil {
			return fmt.Errorf("failed to insert songs: %w", err)
		}
		return nil
	})
}

// Clear deletes every song.
func (r *Repository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM songs").Error
}
