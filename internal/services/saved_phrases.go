package services

import (
	"context"
	"errors"

	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/store"
)

// SavedPhraseService manages the user's saved/favorite phrases. The saved store is
// separate from the generation cache so favorites survive cache refreshes.
type SavedPhraseService struct {
	store store.Store
	auth  AuthContext
}

func NewSavedPhraseService(st store.Store, auth AuthContext) *SavedPhraseService {
	return &SavedPhraseService{store: st, auth: auth}
}

// GetSavedPhrases returns the saved phrases, or an empty list on failure
func (s *SavedPhraseService) GetSavedPhrases(ctx context.Context) []models.Phrase {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return []models.Phrase{}
	}

	phrases, err := s.store.ListPhrases(ctx, userID, store.CollectionSaved)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("get_saved_phrases").Inc()
		infoLog("Failed to load saved phrases for %s: %v", userID, err)
		return []models.Phrase{}
	}
	return phrases
}

// SavePhrase stores phrase in the saved store unless a phrase with the same
// (language, text) is already saved. Returns the existing or new id, or "" on failure.
func (s *SavedPhraseService) SavePhrase(ctx context.Context, phrase models.Phrase) string {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return ""
	}

	existing, err := s.store.FindPhrases(ctx, userID, store.CollectionSaved, store.ByText(phrase.Language, phrase.PhraseText))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("save_phrase").Inc()
		infoLog("Failed to check saved phrases for %s: %v", userID, err)
		return ""
	}
	if len(existing) > 0 {
		debugLog("Phrase %q already saved as %s", truncateText(phrase.PhraseText, 30), existing[0].ID)
		return existing[0].ID
	}

	phrase.IsFavorite = true
	id, err := s.store.AddPhrase(ctx, userID, store.CollectionSaved, phrase)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("save_phrase").Inc()
		infoLog("Failed to save phrase for %s: %v", userID, err)
		return ""
	}
	return id
}

// RemoveSavedPhrase deletes a saved phrase by id
func (s *SavedPhraseService) RemoveSavedPhrase(ctx context.Context, id string) bool {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return false
	}

	if err := s.store.DeletePhrase(ctx, userID, store.CollectionSaved, id); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("remove_saved_phrase").Inc()
		infoLog("Failed to remove saved phrase %s for %s: %v", id, userID, err)
		return false
	}
	return true
}

// ToggleFavoritePhrase sets the favorite flag on the cached copy of phrase id and
// mirrors the change into the saved store.
//
// The two writes are independent; either can fail while the other succeeds, and
// the result is false if any failed. A missing cached copy is not a failure: the
// phrase may only exist in the saved store. When phrase is nil the cached copy,
// or failing that the saved copy, supplies the (language, text) used for the
// saved store; if neither exists the result is false.
func (s *SavedPhraseService) ToggleFavoritePhrase(ctx context.Context, id string, favorite bool, phrase *models.Phrase) bool {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return false
	}

	success := true

	err := s.store.MergePhrase(ctx, userID, store.CollectionPhrases, id, store.PhrasePatch{IsFavorite: &favorite})
	switch {
	case errors.Is(err, store.ErrNotFound):
		debugLog("No cached copy of %s to update, saved store only", id)
	case err != nil:
		metrics.StoreErrorsTotal.WithLabelValues("toggle_favorite_cache").Inc()
		infoLog("Failed to update favorite flag on cached phrase %s: %v", id, err)
		success = false
	}

	if phrase == nil {
		found, err := s.store.GetPhrase(ctx, userID, store.CollectionPhrases, id)
		if err != nil {
			found, err = s.store.GetPhrase(ctx, userID, store.CollectionSaved, id)
		}
		if err != nil {
			infoLog("No phrase details for %s in cache or saved store: %v", id, err)
			return false
		}
		phrase = found
	}

	if favorite {
		if s.SavePhrase(ctx, *phrase) == "" {
			success = false
		}
		return success
	}

	matches, err := s.store.FindPhrases(ctx, userID, store.CollectionSaved, store.ByText(phrase.Language, phrase.PhraseText))
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("toggle_favorite_saved").Inc()
		infoLog("Failed to find saved copies of %s: %v", id, err)
		return false
	}
	for _, m := range matches {
		if !s.RemoveSavedPhrase(ctx, m.ID) {
			success = false
		}
	}
	return success
}
