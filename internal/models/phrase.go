package models

import (
	"strings"
	"time"
)

// Phrase is a single local-language expression with translation and usage metadata.
// The same struct is stored in both the generation cache and the saved-phrase store.
//
// Identity for deduplication is (Language, PhraseText). ID is the storage key once
// persisted; freshly generated phrases carry a synthetic "phrase-<millis>-<index>" id.
type Phrase struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	UserID        string    `gorm:"not null;size:128;index" json:"-"`
	Language      string    `gorm:"not null;size:64;index" json:"language"`
	PhraseText    string    `gorm:"not null" json:"phrase"`
	Translation   string    `json:"translation"`
	UseContext    string    `json:"context"`
	Pronunciation string    `json:"pronunciation"`
	Region        string    `gorm:"size:128" json:"region,omitempty"`
	Category      string    `gorm:"size:64" json:"category,omitempty"`
	IsFavorite    bool      `gorm:"default:false;index" json:"is_favorite"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PhraseKey is the (language, text) pair used to detect duplicates.
type PhraseKey struct {
	Language   string
	PhraseText string
}

// Key returns the deduplication key for the phrase
func (p *Phrase) Key() PhraseKey {
	return PhraseKey{Language: p.Language, PhraseText: p.PhraseText}
}

// SameText reports whether two phrases share language and phrase text
func (p *Phrase) SameText(other *Phrase) bool {
	if other == nil {
		return false
	}
	return p.Language == other.Language && p.PhraseText == other.PhraseText
}

// MatchesPlace reports whether the phrase belongs to a country or language name.
// Comparison is case-insensitive on both Region and Language.
func (p *Phrase) MatchesPlace(place string) bool {
	place = strings.TrimSpace(place)
	if place == "" {
		return false
	}
	return strings.EqualFold(p.Region, place) || strings.EqualFold(p.Language, place)
}

// VisitedPlace is a location the user has been to, as reported by the places layer.
type VisitedPlace struct {
	Name     string `json:"name"`
	Vicinity string `json:"vicinity"`
	Country  string `json:"country,omitempty"`
}

// LocationName returns the name used when prompting for phrases.
// Vicinity wins because it carries the city; Name is often a venue.
func (v VisitedPlace) LocationName() string {
	if name := strings.TrimSpace(v.Vicinity); name != "" {
		return name
	}
	return strings.TrimSpace(v.Name)
}
