package entities

import (
	"time"
)

// UncategorizedLabel is assigned to songs saved without a category.
// It never counts toward any category's song count.
const UncategorizedLabel = "Uncategorized"

type AudioFile struct {
	URI        string `json:"uri"`
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	MimeType   string `json:"mimeType,omitempty"`
	DurationMs int64  `json:"durationMs,omitempty"`
}

type Song struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Lyrics   string `json:"lyrics"`
	Category string `json:"category"` // category id; older data may carry a category name
	Composer string `json:"composer,omitempty"`

	DateAdded  time.Time  `json:"dateAdded"`
	IsFavorite bool       `json:"isFavorite"`
	AudioFile  *AudioFile `json:"audioFile,omitempty"`
}

// HasCategory reports whether the song is filed under a real category.
func (s Song) HasCategory() bool {
	return s.Category != "" && s.Category != UncategorizedLabel
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	SongCount   int       `json:"songCount"`
	DateCreated time.Time `json:"dateCreated"`
}

// Matches reports whether a song's category field refers to this category,
// either by id or by its literal name.
func (c Category) Matches(value string) bool {
	if value == "" || value == UncategorizedLabel {
		return false
	}
	return value == c.ID || value == c.Name
}
