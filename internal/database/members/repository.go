// Package members provides database operations for choir members.
package members

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/choirbook/internal/entities"
)

type Row struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	VoicePart    string `gorm:"not null"`
	Email        string
	Phone        string
	Notes        string
	ProfileImage string
	DateAdded    time.Time `gorm:"not null;index"`
}

func (Row) TableName() string {
	return "members"
}

func (r Row) toEntity() entities.Member {
	return entities.Member{
		ID:           r.ID,
		Name:         r.Name,
		VoicePart:    entities.VoicePart(r.VoicePart),
		Email:        r.Email,
		Phone:        r.Phone,
		Notes:        r.Notes,
		ProfileImage: r.ProfileImage,
		DateAdded:    r.DateAdded.UTC(),
	}
}

func fromEntity(m entities.Member) Row {
	return Row{
		ID:           m.ID,
		Name:         m.Name,
		VoicePart:    string(m.VoicePart),
		Email:        m.Email,
		Phone:        m.Phone,
		Notes:        m.Notes,
		ProfileImage: m.ProfileImage,
		DateAdded:    m.DateAdded,
	}
}

// Repository handles all member database operations.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadAll returns every member, most recently added first.
func (r *Repository) LoadAll(ctx context.Context) ([]entities.Member, error) {
	var rows []Row
	if err := r.db.WithContext(ctx).Order("date_added DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entities.Member, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntity())
	}
	return out, nil
}

func (r *Repository) ReplaceAll(ctx context.Context, members []entities.Member) error {
	rows := make([]Row, 0, len(members))
	for _, m := range members {
		rows = append(rows, fromEntity(m))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM members").Error; err != nil {
			return fmt.Errorf("failed to clear members: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert members: %w", err)
		}
		return nil
	})
}

func (r *Repository) Clear(ctx context.Context) error {
	return r.db.WithContext(ctx).Exec("DELETE FROM members").Error
}
