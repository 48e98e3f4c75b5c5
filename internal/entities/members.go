package entities

import "time"

type VoicePart string

const (
	VoicePartSoprano VoicePart = "Soprano"
	VoicePartAlto    VoicePart = "Alto"
	VoicePartTenor   VoicePart = "Tenor"
	VoicePartBass    VoicePart = "Bass"
)

// VoiceParts lists the voice parts in score order.
var VoiceParts = []VoicePart{VoicePartSoprano, VoicePartAlto, VoicePartTenor, VoicePartBass}

type Member struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	VoicePart    VoicePart `json:"voicePart"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	DateAdded    time.Time `json:"dateAdded"`
}

type ChoirType string

const (
	ChoirTypeA ChoirType = "A"
	ChoirTypeB ChoirType = "B"
	ChoirTypeC ChoirType = "C"
)

type Choir struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        ChoirType `json:"type"`
	Members     []string  `json:"members"` // member IDs
	DateCreated time.Time `json:"dateCreated"`
}
