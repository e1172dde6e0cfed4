package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/store"
)

const (
	// PhrasebookRefreshInterval is how old the cache can be before it is considered stale.
	// Stale caches are still served; staleness only triggers a background refresh.
	PhrasebookRefreshInterval = 24 * time.Hour
)

// CachedPhrases is the generation cache as seen by the UI
type CachedPhrases struct {
	Phrases       []models.Phrase `json:"phrases"`
	NeedsRefresh  bool            `json:"needs_refresh"`
	LastUpdatedAt *time.Time      `json:"last_updated_at,omitempty"`
}

// PhraseCacheService persists generated phrases per user and tracks their freshness
type PhraseCacheService struct {
	store           store.Store
	auth            AuthContext
	clock           Clock
	refreshInterval time.Duration
}

// NewPhraseCacheService creates a cache service. refreshInterval <= 0 uses PhrasebookRefreshInterval.
func NewPhraseCacheService(st store.Store, auth AuthContext, clock Clock, refreshInterval time.Duration) *PhraseCacheService {
	if refreshInterval <= 0 {
		refreshInterval = PhrasebookRefreshInterval
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &PhraseCacheService{
		store:           st,
		auth:            auth,
		clock:           clock,
		refreshInterval: refreshInterval,
	}
}

// IsFresh reports whether a cache refreshed at lastUpdated is still within the refresh interval
func (s *PhraseCacheService) IsFresh(lastUpdated time.Time) bool {
	if lastUpdated.IsZero() {
		return false
	}
	return s.clock.Now().Sub(lastUpdated) < s.refreshInterval
}

// GetCachedPhrases loads the cache and decides whether it needs refreshing.
// Settings and phrases are loaded independently; a failure in either degrades
// to "stale" or "empty" rather than an error.
func (s *PhraseCacheService) GetCachedPhrases(ctx context.Context) CachedPhrases {
	result := CachedPhrases{Phrases: []models.Phrase{}, NeedsRefresh: true}

	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return result
	}

	fresh := false
	settings, err := s.store.GetSettings(ctx, userID)
	if err == nil {
		if lastUpdated := settings.LastUpdatedAtTime(); !lastUpdated.IsZero() {
			result.LastUpdatedAt = &lastUpdated
			fresh = s.IsFresh(lastUpdated)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		metrics.StoreErrorsTotal.WithLabelValues("get_cached_settings").Inc()
		infoLog("Failed to load phrasebook settings for %s: %v", userID, err)
	}

	phrases, err := s.store.ListPhrases(ctx, userID, store.CollectionPhrases)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("get_cached_phrases").Inc()
		infoLog("Failed to load cached phrases for %s: %v", userID, err)
		return result
	}

	result.Phrases = phrases
	result.NeedsRefresh = len(phrases) == 0 || !fresh

	debugLog("Cache for %s: %d phrases, fresh=%v", userID, len(phrases), fresh)
	return result
}

// CachePhrases replaces the user's non-favorite cached phrases with newPhrases.
//
// Favorites are kept, and a new phrase matching a favorite's (language, text)
// is skipped. The sequence is not transactional: a failure part way through
// leaves a partially refreshed cache that the next successful run corrects.
// Returns the persisted copies, which carry store ids.
func (s *PhraseCacheService) CachePhrases(ctx context.Context, newPhrases []models.Phrase) ([]models.Phrase, error) {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return nil, ErrNoUser
	}

	stale, err := s.store.FindPhrases(ctx, userID, store.CollectionPhrases, store.ByFavorite(false))
	if err != nil {
		return nil, fmt.Errorf("failed to load cached phrases: %w", err)
	}
	for _, p := range stale {
		if err := s.store.DeletePhrase(ctx, userID, store.CollectionPhrases, p.ID); err != nil {
			return nil, fmt.Errorf("failed to clear cached phrase %s: %w", p.ID, err)
		}
	}

	favorites, err := s.store.FindPhrases(ctx, userID, store.CollectionPhrases, store.ByFavorite(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite phrases: %w", err)
	}

	persisted, err := s.insertNew(ctx, userID, newPhrases, favorites)
	if err != nil {
		return persisted, err
	}

	if err := s.touch(ctx, userID); err != nil {
		return persisted, err
	}

	infoLog("Cached %d phrases for %s (cleared %d, kept %d favorites)", len(persisted), userID, len(stale), len(favorites))
	return persisted, nil
}

// MergePhrases adds phrases to the cache without clearing it, skipping any
// (language, text) already cached. Used for single-country lookups so they
// don't evict the comprehensive phrasebook.
func (s *PhraseCacheService) MergePhrases(ctx context.Context, newPhrases []models.Phrase) ([]models.Phrase, error) {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return nil, ErrNoUser
	}

	existing, err := s.store.ListPhrases(ctx, userID, store.CollectionPhrases)
	if err != nil {
		return nil, fmt.Errorf("failed to load cached phrases: %w", err)
	}

	persisted, err := s.insertNew(ctx, userID, newPhrases, existing)
	if err != nil {
		return persisted, err
	}
	debugLog("Merged %d phrases into cache for %s", len(persisted), userID)
	return persisted, nil
}

// insertNew adds each phrase unless its (language, text) is already in existing
// or earlier in the batch.
func (s *PhraseCacheService) insertNew(ctx context.Context, userID string, newPhrases, existing []models.Phrase) ([]models.Phrase, error) {
	taken := make(map[models.PhraseKey]bool, len(existing))
	for _, p := range existing {
		taken[p.Key()] = true
	}

	persisted := make([]models.Phrase, 0, len(newPhrases))
	for _, p := range newPhrases {
		if taken[p.Key()] {
			debugLog("Skipping duplicate phrase %q (%s)", truncateText(p.PhraseText, 30), p.Language)
			continue
		}
		p.IsFavorite = false
		id, err := s.store.AddPhrase(ctx, userID, store.CollectionPhrases, p)
		if err != nil {
			return persisted, fmt.Errorf("failed to cache phrase: %w", err)
		}
		p.ID = id
		p.UserID = userID
		persisted = append(persisted, p)
		taken[p.Key()] = true
	}
	return persisted, nil
}

func (s *PhraseCacheService) touch(ctx context.Context, userID string) error {
	now := s.clock.Now().UnixMilli()
	if err := s.store.MergeSettings(ctx, userID, store.SettingsPatch{LastUpdatedAt: &now}); err != nil {
		return fmt.Errorf("failed to update cache timestamp: %w", err)
	}
	return nil
}
