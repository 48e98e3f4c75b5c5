// Package choirs provides database operations for choirs. The member id list
// is stored as JSON text in the members column.
package choirs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/choirbook/internal/entities"
)

type Row struct {
	ID          string    `gorm:"primaryKey"`
	Name        string    `gorm:"not null"`
	Type        string    `gorm:"not null"`
	Members     []string  `gorm:"type:text;not null;serializer:json"`
	DateCreated time.Time `gorm:"not null;index"`
}

func (Row) TableName() string {
	return "choirs"
}

func (r Row) toEntity() entities.Choir {
	members := r.Members
	if members == nil {
		members = []string{}
	}
	return entities.Choir{
		ID:          r.ID,
		Name:        r.Name,
		Type:        entities.ChoirType(r.Type),
		Members:     members,
		DateCreated: r.DateCreated.UTC(),
	}
}

func fromEntity(c entities.Choir) Row {
	members := c.Members
	if members == nil {
		members = []string{}
	}
	return Row{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		Members:     members,
		DateCreated: c.DateCreated,
	}
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LoadAll(ctx context.Context) ([]entities.Choir, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Order("date_created DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Choir, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) ReplaceAll(ctx context.Context, choirs []entities.Choir) error {
	rows := make([]Row, 0, len(choirs))
	for _, c := range choirs {
		rows = append(rows, fromEntity(c))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM choirs").Error; err != nil {
			return fmt.Errorf("failed to clear choirs: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert choirs: %w", err)
		}
		return nil
	})
}

func (r *Repository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM choirs").Error
}
