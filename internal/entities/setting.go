package entities

type VerseRotationFrequency string

const (
	VerseRotationDaily     VerseRotationFrequency = "daily"
	VerseRotationWeekly    VerseRotationFrequency = "weekly"
	VerseRotationOnAppOpen VerseRotationFrequency = "onAppOpen"
)

type AppSettings struct {
	FontSize               int                    `json:"fontSize"`
	FontFamily             string                 `json:"fontFamily"`
	FontColor              string                 `json:"fontColor"`
	BackgroundColor        string                 `json:"backgroundColor"`
	IsDarkMode             bool                   `json:"isDarkMode"`
	VerseRotationFrequency VerseRotationFrequency `json:"verseRotationFrequency"`
}

// DefaultSettings returns the settings used when nothing has been saved yet.
func DefaultSettings() AppSettings {
	return AppSettings{
		FontSize:               16,
		FontFamily:             "System",
		FontColor:              "#374151",
		BackgroundColor:        "#FFFFFF",
		IsDarkMode:             false,
		VerseRotationFrequency: VerseRotationDaily,
	}
}
