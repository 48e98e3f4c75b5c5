// Package categories provides database operations for song categories.
//
// Category names are unique; saving a collection with a duplicate name fails
// and leaves the stored categories unchanged.
package categories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/choirbook/internal/entities"
)

type Row struct {
	ID          string    `gorm:"primaryKey"`
	Name        string    `gorm:"not null;uniqueIndex"`
	Color       string    `gorm:"not null"`
	SongCount   int       `gorm:"not null"`
	DateCreated time.Time `gorm:"not null"`
}

func (Row) TableName() string {
	return "categories"
}

func (r Row) toEntity() entities.Category {
	return entities.Category{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		SongCount:   r.SongCount,
		DateCreated: r.DateCreated.UTC(),
	}
}

func fromEntity(c entities.Category) Row {
	return Row{
		ID:          c.ID,
		Name:        c.Name,
		Color:       c.Color,
		SongCount:   c.SongCount,
		DateCreated: c.DateCreated,
	}
}

// Repository handles all category database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new categories repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadAll returns every category ordered by name.
func (r *Repository) LoadAll(ctx context.Context) ([]entities.Category, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

// ReplaceAll swaps the stored categories for the given collection.
func (r *Repository) ReplaceAll(ctx context.Context, categories []entities.Category) error {
	rows := make([]Row, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, fromEntity(c))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM categories").Error; err != nil {
			return fmt.Errorf("failed to clear categories: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert categories: %w", err)
		}
		return nil
	})
}

func (r *Repository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM categories").Error
}
