// Package verses holds the verse-of-the-day catalogue and the rotation rules
// that decide when the displayed verse changes.
package verses

import (
	"regexp"
	"strings"
	"time"

	"github.com/mrlokans/choirbook/internal/entities"
)

type Verse struct {
	Text      string `json:"text"`
	Reference string `json:"reference"`
}

var catalogue = []Verse{
	{Text: "The Lord is my shepherd; I shall not want.", Reference: "Psalm 23:1"},
	{Text: "I can do all things through Christ which strengtheneth me.", Reference: "Philippians 4:13"},
	{Text: "Trust in the Lord with all thine heart; and lean not unto thine own understanding.", Reference: "Proverbs 3:5"},
	{Text: "For I know the thoughts that I think toward you, saith the Lord, thoughts of peace, and not of evil, to give you an expected end.", Reference: "Jeremiah 29:11"},
	{Text: "Be strong and of a good courage; be not afraid, neither be thou dismayed: for the Lord thy God is with thee whithersoever thou goest.", Reference: "Joshua 1:9"},
}

// All returns a copy of the catalogue.
func All() []Verse {
	out := make([]Verse, len(catalogue))
	copy(out, catalogue)
	return out
}

// ForDay picks the verse for the day of month of now.
func ForDay(now time.Time) Verse {
	return catalogue[now.Day()%len(catalogue)]
}

const week = 7 * 24 * time.Hour

// ShouldRotate reports whether a verse last shown at last is due for
// replacement at now. A verse that was never shown always rotates.
func ShouldRotate(frequency entities.VerseRotationFrequency, last *time.Time, now time.Time) bool {
	if last == nil {
		return true
	}
	switch frequency {
	case entities.VerseRotationDaily:
		return !sameDay(last.In(now.Location()), now)
	case entities.VerseRotationWeekly:
		return now.Sub(*last) >= week
	case entities.VerseRotationOnAppOpen:
		return true
	default:
		return false
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var blankLines = regexp.MustCompile(`\n\s*\n+`)

// SplitVerses breaks song lyrics into stanzas separated by blank lines.
func SplitVerses(lyrics string) []string {
	parts := blankLines.Split(strings.ReplaceAll(lyrics, "\r\n", "\n"), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
