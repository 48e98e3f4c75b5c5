package storage

import (
	"context"

	"github.com/mrlokans/choirbook/internal/entities"
)

type Stats struct {
	Songs      int                        `json:"songs"`
	Favorites  int                        `json:"favorites"`
	WithAudio  int                        `json:"withAudio"`
	Categories int                        `json:"categories"`
	Members    int                        `json:"members"`
	Choirs     int                        `json:"choirs"`
	VoiceParts map[entities.VoicePart]int `json:"voiceParts"`
	ChoirTypes map[entities.ChoirType]int `json:"choirTypes"`
}

// Stats summarizes the library for the home view.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	songs := s.loadSongs(ctx)
	members := s.loadMembers(ctx)
	choirs := s.loadChoirs(ctx)

	stats := &Stats{
		Songs:      len(songs),
		Categories: len(s.loadCategories(ctx)),
		Members:    len(members),
		Choirs:     len(choirs),
		VoiceParts: make(map[entities.VoicePart]int, len(entities.VoiceParts)),
		ChoirTypes: make(map[entities.ChoirType]int),
	}
	for _, part := range entities.VoiceParts {
		stats.VoiceParts[part] = 0
	}
	for _, song := range songs {
		if song.IsFavorite {
			stats.Favorites++
		}
		if song.AudioFile != nil {
			stats.WithAudio++
		}
	}
	for _, m := range members {
		stats.VoiceParts[m.VoicePart]++
	}
	for _, c := range choirs {
		stats.ChoirTypes[c.Type]++
	}
	return stats, nil
}
