// Package store persists per-user phrasebook documents: the generation cache,
// the saved-phrase collection and the settings singleton.
//
// Backends differ in storage but share semantics: single-document writes are
// atomic, nothing spans documents, and a missing document is ErrNotFound.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/codyseavey/phrasebook/internal/models"
)

// ErrNotFound is returned when a phrase or settings document does not exist
var ErrNotFound = errors.New("document not found")

// Collection names a user-scoped phrase collection
type Collection string

const (
	// CollectionPhrases is the generation cache
	CollectionPhrases Collection = "phrases"
	// CollectionSaved holds user-curated phrases that survive cache refreshes
	CollectionSaved Collection = "savedPhrases"
)

// Valid reports whether c is a known collection
func (c Collection) Valid() bool {
	return c == CollectionPhrases || c == CollectionSaved
}

// Filter is an equality query over phrases. Empty strings and nil pointers match anything.
type Filter struct {
	Language   string
	PhraseText string
	IsFavorite *bool
}

// Matches reports whether p satisfies every set field of the filter
func (f Filter) Matches(p *models.Phrase) bool {
	if f.Language != "" && p.Language != f.Language {
		return false
	}
	if f.PhraseText != "" && p.PhraseText != f.PhraseText {
		return false
	}
	if f.IsFavorite != nil && p.IsFavorite != *f.IsFavorite {
		return false
	}
	return true
}

// ByText filters on the (language, phrase text) identity pair
func ByText(language, phraseText string) Filter {
	return Filter{Language: language, PhraseText: phraseText}
}

// ByFavorite filters on the favorite flag
func ByFavorite(favorite bool) Filter {
	return Filter{IsFavorite: &favorite}
}

// PhrasePatch is a merge-write into an existing phrase document
type PhrasePatch struct {
	IsFavorite *bool
}

// SettingsPatch is a merge-write into the settings singleton; nil fields are left as-is
type SettingsPatch struct {
	LastUpdatedAt       *int64
	FavoriteLanguages   []string
	ExplorableCountries []string
	RequestLimits       *models.RequestLimitInfo
}

// Apply merges the patch into s
func (p SettingsPatch) Apply(s *models.PhrasebookSettings) {
	if p.LastUpdatedAt != nil {
		s.LastUpdatedAt = *p.LastUpdatedAt
	}
	if p.FavoriteLanguages != nil {
		s.FavoriteLanguages = append([]string{}, p.FavoriteLanguages...)
	}
	if p.ExplorableCountries != nil {
		s.ExplorableCountries = append([]string{}, p.ExplorableCountries...)
	}
	if p.RequestLimits != nil {
		limits := *p.RequestLimits
		s.RequestLimits = &limits
	}
	s.UpdatedAt = time.Now()
}

// Store is the per-user document store
type Store interface {
	ListPhrases(ctx context.Context, userID string, coll Collection) ([]models.Phrase, error)
	FindPhrases(ctx context.Context, userID string, coll Collection, filter Filter) ([]models.Phrase, error)
	GetPhrase(ctx context.Context, userID string, coll Collection, id string) (*models.Phrase, error)
	// AddPhrase stores a phrase under a newly generated id and returns it
	AddPhrase(ctx context.Context, userID string, coll Collection, phrase models.Phrase) (string, error)
	// MergePhrase updates an existing phrase; ErrNotFound if it does not exist
	MergePhrase(ctx context.Context, userID string, coll Collection, id string, patch PhrasePatch) error
	DeletePhrase(ctx context.Context, userID string, coll Collection, id string) error

	GetSettings(ctx context.Context, userID string) (*models.PhrasebookSettings, error)
	// MergeSettings creates the settings document if needed
	MergeSettings(ctx context.Context, userID string, patch SettingsPatch) error

	Close() error
}
