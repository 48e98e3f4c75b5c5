// Package settings provides database operations for the two singleton rows:
// application settings and the verse rotation record.
//
// # Usage
//
//	repo := settings.NewRepository(db)
//	current, err := repo.Get(ctx) // nil when nothing has been saved
package settings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/choirbook/internal/entities"
)

// singletonID is the primary key of the only row in each table.
const singletonID = 1

type Row struct {
	ID                     int    `gorm:"primaryKey;autoIncrement:false"`
	FontSize               int    `gorm:"not null"`
	FontFamily             string `gorm:"not null"`
	FontColor              string `gorm:"not null"`
	BackgroundColor        string `gorm:"not null"`
	IsDarkMode             bool   `gorm:"not null"`
	VerseRotationFrequency string `gorm:"not null"`
}

func (Row) TableName() string {
	return "settings"
}

type VerseRotationRow struct {
	ID            int `gorm:"primaryKey;autoIncrement:false"`
	LastVerseDate *time.Time
}

func (VerseRotationRow) TableName() string {
	return "verse_rotation"
}

// Repository handles all settings database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new settings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the saved settings, or nil when none were saved.
func (r *Repository) Get(ctx context.Context) (*entities.AppSettings, error) {
	var row Row
	err := r.db.WithContext(ctx).First(&row, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entities.AppSettings{
		FontSize:               row.FontSize,
		FontFamily:             row.FontFamily,
		FontColor:              row.FontColor,
		BackgroundColor:        row.BackgroundColor,
		IsDarkMode:             row.IsDarkMode,
		VerseRotationFrequency: entities.VerseRotationFrequency(row.VerseRotationFrequency),
	}, nil
}

// Save creates or overwrites the settings row.
func (r *Repository) Save(ctx context.Context, s entities.AppSettings) error {
	row := Row{
		ID:                     singletonID,
		FontSize:               s.FontSize,
		FontFamily:             s.FontFamily,
		FontColor:              s.FontColor,
		BackgroundColor:        s.BackgroundColor,
		IsDarkMode:             s.IsDarkMode,
		VerseRotationFrequency: string(s.VerseRotationFrequency),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}

// LastVerseDate returns when the verse last rotated, or nil if it never did.
func (r *Repository) LastVerseDate(ctx context.Context) (*time.Time, error) {
	var row VerseRotationRow
	err := r.db.WithContext(ctx).First(&row, singletonID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if row.LastVerseDate == nil {
		return nil, nil
	}
	t := row.LastVerseDate.UTC()
	return &t, nil
}

func (r *Repository) SetLastVerseDate(ctx context.Context, at time.Time) error {
	row := VerseRotationRow{ID: singletonID, LastVerseDate: &at}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
}
