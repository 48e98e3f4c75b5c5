// Command seed_demo fills an empty library with sample categories, public
// domain hymns, members and choirs.
// Usage: go run ./cmd/seed_demo [-backend kv] [-reset]
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/mrlokans/choirbook/internal/config"
	"github.com/mrlokans/choirbook/internal/entities"
	"github.com/mrlokans/choirbook/internal/entrypoint"
	"github.com/mrlokans/choirbook/internal/storage"
)

func main() {
	backend := flag.String("backend", "", "storage backend (defaults to STORAGE_BACKEND)")
	reset := flag.Bool("reset", false, "delete the existing library first")
	flag.Parse()

	config.LoadDotEnv()
	cfg := config.NewConfig()
	if *backend != "" {
		cfg.Storage.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx := context.Background()
	library, err := entrypoint.OpenLibrary(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open library: %v", err)
	}
	defer library.Close()

	if *reset {
		if err := library.ResetAllData(ctx); err != nil {
			log.Fatalf("Failed to reset library: %v", err)
		}
	}

	categories := createCategories(ctx, library)
	for _, song := range demoSongs(categories) {
		if _, err := library.AddSong(ctx, song); err != nil {
			log.Printf("Failed to save song %s: %v", song.Title, err)
			continue
		}
		log.Printf("Saved song: %s", song.Title)
	}

	members := createMembers(ctx, library)
	createChoirs(ctx, library, members)

	log.Println("Demo library seeded successfully!")
}

func createCategories(ctx context.Context, library *storage.Service) map[string]string {
	demo := []entities.Category{
		{Name: "Hymns", Color: "#8B5CF6"},
		{Name: "Christmas", Color: "#EF4444"},
		{Name: "Easter", Color: "#F59E0B"},
		{Name: "Spirituals", Color: "#10B981"},
	}

	existing, err := library.LoadCategories(ctx)
	if err != nil {
		log.Fatalf("Failed to load categories: %v", err)
	}

	ids := make(map[string]string)
	for _, c := range existing {
		ids[c.Name] = c.ID
	}
	for _, c := range demo {
		if _, ok := ids[c.Name]; ok {
			continue
		}
		saved, err := library.AddCategory(ctx, c)
		if err != nil {
			log.Printf("Failed to create category %s: %v", c.Name, err)
			continue
		}
		ids[c.Name] = saved.ID
	}
	return ids
}

func demoSongs(categories map[string]string) []entities.Song {
	now := time.Now().UTC()

	return []entities.Song{
		{
			Title:      "Amazing Grace",
			Composer:   "John Newton",
			Category:   categories["Hymns"],
			IsFavorite: true,
			DateAdded:  now.Add(-72 * time.Hour),
			Lyrics: "Amazing grace! How sweet the sound\n" +
				"That saved a wretch like me!\n" +
				"I once was lost, but now am found;\n" +
				"Was blind, but now I see.",
		},
		{
			Title:     "Abide With Me",
			Composer:  "Henry Francis Lyte",
			Category:  categories["Hymns"],
			DateAdded: now.Add(-48 * time.Hour),
			Lyrics: "Abide with me; fast falls the eventide;\n" +
				"The darkness deepens; Lord with me abide.\n" +
				"When other helpers fail and comforts flee,\n" +
				"Help of the helpless, O abide with me.",
		},
		{
			Title:     "Silent Night",
			Composer:  "Franz Xaver Gruber",
			Category:  categories["Christmas"],
			DateAdded: now.Add(-24 * time.Hour),
			Lyrics: "Silent night, holy night,\n" +
				"All is calm, all is bright\n" +
				"Round yon virgin mother and child.\n" +
				"Holy infant so tender and mild,\n" +
				"Sleep in heavenly peace.",
		},
		{
			Title:     "Christ the Lord Is Risen Today",
			Composer:  "Charles Wesley",
			Category:  categories["Easter"],
			DateAdded: now.Add(-12 * time.Hour),
			Lyrics: "Christ the Lord is risen today, Alleluia!\n" +
				"Earth and heaven in chorus say, Alleluia!",
		},
		{
			Title:      "Swing Low, Sweet Chariot",
			Category:   categories["Spirituals"],
			IsFavorite: true,
			DateAdded:  now,
			Lyrics: "Swing low, sweet chariot,\n" +
				"Coming for to carry me home.",
		},
		{
			Title:     "Doxology",
			Composer:  "Thomas Ken",
			DateAdded: now,
			Lyrics:    "Praise God, from whom all blessings flow.",
		},
	}
}

func createMembers(ctx context.Context, library *storage.Service) []entities.Member {
	demo := []entities.Member{
		{Name: "Alice Johnson", VoicePart: entities.VoicePartSoprano, Email: "alice@example.com"},
		{Name: "Beatrice Moore", VoicePart: entities.VoicePartSoprano},
		{Name: "Clara Wilson", VoicePart: entities.VoicePartAlto, Phone: "+1 555 0102"},
		{Name: "Diana Clark", VoicePart: entities.VoicePartAlto},
		{Name: "Edward Hall", VoicePart: entities.VoicePartTenor, Notes: "Section leader"},
		{Name: "Frank Lewis", VoicePart: entities.VoicePartTenor},
		{Name: "George Young", VoicePart: entities.VoicePartBass},
		{Name: "Henry King", VoicePart: entities.VoicePartBass},
	}

	var saved []entities.Member
	for _, m := range demo {
		member, err := library.AddMember(ctx, m)
		if err != nil {
			log.Printf("Failed to save member %s: %v", m.Name, err)
			continue
		}
		saved = append(saved, *member)
	}
	log.Printf("Saved %d members", len(saved))
	return saved
}

func createChoirs(ctx context.Context, library *storage.Service, members []entities.Member) {
	var all, upper []string
	for _, m := range members {
		all = append(all, m.ID)
		if m.VoicePart == entities.VoicePartSoprano || m.VoicePart == entities.VoicePartAlto {
			upper = append(upper, m.ID)
		}
	}

	choirs := []entities.Choir{
		{Name: "Sunday Choir", Type: entities.ChoirTypeA, Members: all},
		{Name: "Women's Ensemble", Type: entities.ChoirTypeB, Members: upper},
		{Name: "Youth Choir", Type: entities.ChoirTypeC},
	}
	for _, c := range choirs {
		if _, err := library.AddChoir(ctx, c); err != nil {
			log.Printf("Failed to save choir %s: %v", c.Name, err)
			continue
		}
		log.Printf("Saved choir: %s (%d members)", c.Name, len(c.Members))
	}
}
