package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mrlokans/choirbook/internal/entities"
)

// Snapshot is the export document. Field names match the mobile app's export
// format so files can move between the two.
type Snapshot struct {
	Songs      []entities.Song      `json:"songs"`
	Members    []entities.Member    `json:"members"`
	Choirs     []entities.Choir     `json:"choirs"`
	Settings   entities.AppSettings `json:"settings"`
	Categories []entities.Category  `json:"categories"`
	ExportDate time.Time            `json:"exportDate"`
}

// importDocument distinguishes absent fields (nil) from empty ones.
type importDocument struct {
	Songs      *[]entities.Song      `json:"songs"`
	Members    *[]entities.Member    `json:"members"`
	Choirs     *[]entities.Choir     `json:"choirs"`
	Settings   *entities.AppSettings `json:"settings"`
	Categories *[]entities.Category  `json:"categories"`
}

// ImportResult reports which collections an import replaced.
type ImportResult struct {
	Songs      int  `json:"songs"`
	Members    int  `json:"members"`
	Choirs     int  `json:"choirs"`
	Categories int  `json:"categories"`
	Settings   bool `json:"settings"`

	replaced []string
}

// Replaced lists the collections the import wrote, in write order.
func (r *ImportResult) Replaced() []string {
	return r.replaced
}

func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return &Snapshot{
		Songs:      s.loadSongs(ctx),
		Members:    s.loadMembers(ctx),
		Choirs:     s.loadChoirs(ctx),
		Settings:   s.loadSettings(ctx),
		Categories: s.loadCategories(ctx),
		ExportDate: s.now().UTC(),
	}, nil
}

// ExportData renders the full library as an indented JSON document.
func (s *Service) ExportData(ctx context.Context) ([]byte, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return data, nil
}

// ImportData replaces each collection present in the document. Collections
// missing from the document are left untouched. Malformed JSON writes
// nothing.
func (s *Service) ImportData(ctx context.Context, data []byte) (*ImportResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var doc importDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := &ImportResult{}
	var errs []error

	if doc.Songs != nil {
		if err := s.saveSongs(ctx, *doc.Songs); err != nil {
			errs = append(errs, err)
		} else {
			result.Songs = len(*doc.Songs)
			result.replaced = append(result.replaced, "songs")
		}
	}
	if doc.Members != nil {
		if err := s.saveMembers(ctx, *doc.Members); err != nil {
			errs = append(errs, err)
		} else {
			result.Members = len(*doc.Members)
			result.replaced = append(result.replaced, "members")
		}
	}
	if doc.Choirs != nil {
		if err := s.saveChoirs(ctx, *doc.Choirs); err != nil {
			errs = append(errs, err)
		} else {
			result.Choirs = len(*doc.Choirs)
			result.replaced = append(result.replaced, "choirs")
		}
	}
	if doc.Settings != nil {
		if err := s.saveSettings(ctx, *doc.Settings); err != nil {
			errs = append(errs, err)
		} else {
			result.Settings = true
			result.replaced = append(result.replaced, "settings")
		}
	}
	if doc.Categories != nil {
		if err := s.saveCategories(ctx, *doc.Categories); err != nil {
			errs = append(errs, err)
		} else {
			result.Categories = len(*doc.Categories)
			result.replaced = append(result.replaced, "categories")
		}
	}

	if err := errors.Join(errs...); err != nil {
		return result, fmt.Errorf("import data: %w", err)
	}
	log.Printf("Imported %d songs, %d members, %d choirs, %d categories",
		result.Songs, result.Members, result.Choirs, result.Categories)
	return result, nil
}
