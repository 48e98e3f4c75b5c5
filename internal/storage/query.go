package storage

import (
	"slices"
	"strings"

	"github.com/mrlokans/choirbook/internal/entities"
)

type SongSort string

const (
	SortRecent       SongSort = "recent"
	SortAlphabetical SongSort = "alphabetical"
)

// ParseSongSort maps a query value to a sort order, defaulting to recent.
func ParseSongSort(value string) SongSort {
	if SongSort(strings.ToLower(value)) == SortAlphabetical {
		return SortAlphabetical
	}
	return SortRecent
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// SearchSongs filters songs whose title contains query, case-insensitively.
// An empty query returns every song.
func SearchSongs(songs []entities.Song, query string) []entities.Song {
	query = strings.TrimSpace(query)
	out := make([]entities.Song, 0, len(songs))
	for _, song := range songs {
		if query == "" || containsFold(song.Title, query) {
			out = append(out, song)
		}
	}
	return out
}

// SortSongs returns a sorted copy.
func SortSongs(songs []entities.Song, order SongSort) []entities.Song {
	out := slices.Clone(songs)
	switch order {
	case SortAlphabetical:
		slices.SortStableFunc(out, func(a, b entities.Song) int {
			return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
		})
	default:
		slices.SortStableFunc(out, func(a, b entities.Song) int {
			return b.DateAdded.Compare(a.DateAdded)
		})
	}
	return out
}

// SongsInCategory returns the songs filed under category (by id or name)
// whose title or composer contains query.
func SongsInCategory(songs []entities.Song, category entities.Category, query string) []entities.Song {
	query = strings.TrimSpace(query)
	out := make([]entities.Song, 0)
	for _, song := range songs {
		if !category.Matches(song.Category) {
			continue
		}
		if query == "" || containsFold(song.Title, query) || containsFold(song.Composer, query) {
			out = append(out, song)
		}
	}
	return out
}

// SearchMembers filters members by name and sorts them by name.
func SearchMembers(members []entities.Member, query string) []entities.Member {
	query = strings.TrimSpace(query)
	out := make([]entities.Member, 0, len(members))
	for _, m := range members {
		if query == "" || containsFold(m.Name, query) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b entities.Member) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return out
}

func SearchCategories(categories []entities.Category, query string) []entities.Category {
	query = strings.TrimSpace(query)
	out := make([]entities.Category, 0, len(categories))
	for _, c := range categories {
		if query == "" || containsFold(c.Name, query) {
			out = append(out, c)
		}
	}
	return out
}

// FindCategory resolves a category by id, then by case-insensitive name.
func FindCategory(categories []entities.Category, value string) (*entities.Category, bool) {
	for i := range categories {
		if categories[i].ID == value {
			return &categories[i], true
		}
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, value) {
			return &categories[i], true
		}
	}
	return nil, false
}
