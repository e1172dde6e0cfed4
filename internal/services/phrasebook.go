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

// Phrase sources reported to the UI
const (
	SourceCache     = "cache"
	SourceGenerated = "generated"
	SourceMock      = "mock"
)

// PhrasebookResult contains phrases and where they came from
type PhrasebookResult struct {
	Phrases      []models.Phrase `json:"phrases"`
	Source       string          `json:"source"`
	NeedsRefresh bool            `json:"needs_refresh"`
}

// PhrasebookService orchestrates the cache, the request limiter and the generator.
//
// The policy is the same everywhere: a non-empty cache beats a fresh call; an
// empty cache consults the limiter and generates if quota allows; callers that
// cannot show an error get the built-in mock phrases.
type PhrasebookService struct {
	store     store.Store
	auth      AuthContext
	cache     *PhraseCacheService
	saved     *SavedPhraseService
	limiter   *RequestLimiter
	generator *PhraseGenerator
}

// PhrasebookDeps wires a PhrasebookService
type PhrasebookDeps struct {
	Store     store.Store
	Auth      AuthContext
	Cache     *PhraseCacheService
	Saved     *SavedPhraseService
	Limiter   *RequestLimiter
	Generator *PhraseGenerator
}

func NewPhrasebookService(deps PhrasebookDeps) *PhrasebookService {
	return &PhrasebookService{
		store:     deps.Store,
		auth:      deps.Auth,
		cache:     deps.Cache,
		saved:     deps.Saved,
		limiter:   deps.Limiter,
		generator: deps.Generator,
	}
}

// PhrasebookOptions configures NewPhrasebook
type PhrasebookOptions struct {
	Clock                Clock
	Location             *time.Location
	MaxDailyRequests     int
	RefreshInterval      time.Duration
	MaxPhrasesPerRequest int
}

// NewPhrasebook builds the full service graph over a store and a provider
func NewPhrasebook(st store.Store, provider ContentGenerator, auth AuthContext, opts PhrasebookOptions) *PhrasebookService {
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	limiter := NewRequestLimiter(st, auth, clock, opts.Location, opts.MaxDailyRequests)
	return NewPhrasebookService(PhrasebookDeps{
		Store:     st,
		Auth:      auth,
		Cache:     NewPhraseCacheService(st, auth, clock, opts.RefreshInterval),
		Saved:     NewSavedPhraseService(st, auth),
		Limiter:   limiter,
		Generator: NewPhraseGenerator(provider, limiter, clock, opts.MaxPhrasesPerRequest),
	})
}

func (s *PhrasebookService) Cache() *PhraseCacheService  { return s.cache }
func (s *PhrasebookService) Saved() *SavedPhraseService  { return s.saved }
func (s *PhrasebookService) Limiter() *RequestLimiter    { return s.limiter }
func (s *PhrasebookService) Generator() *PhraseGenerator { return s.generator }

// GetComprehensivePhrasebook returns phrases for all visited places.
//
// Any cached phrases are returned as-is, however old; NeedsRefresh tells the
// caller to schedule a background refresh. Only an empty cache leads to a
// provider call. Quota exhaustion (*LimitReachedError) and provider failures
// are returned so the caller can show a retry message or fall back to
// CreateMockPhrases.
func (s *PhrasebookService) GetComprehensivePhrasebook(ctx context.Context, places []models.VisitedPlace) (*PhrasebookResult, error) {
	cached := s.cache.GetCachedPhrases(ctx)
	if len(cached.Phrases) > 0 {
		metrics.PhraseRequestsTotal.WithLabelValues(SourceCache).Inc()
		return &PhrasebookResult{
			Phrases:      cached.Phrases,
			Source:       SourceCache,
			NeedsRefresh: cached.NeedsRefresh,
		}, nil
	}

	phrases, err := s.RefreshPhrasebook(ctx, places)
	if err != nil {
		return nil, err
	}

	metrics.PhraseRequestsTotal.WithLabelValues(SourceGenerated).Inc()
	return &PhrasebookResult{Phrases: phrases, Source: SourceGenerated}, nil
}

// RefreshPhrasebook generates phrases for places and replaces the cache with them,
// regardless of the cache's current state. If persisting fails the generated
// phrases are still returned.
func (s *PhrasebookService) RefreshPhrasebook(ctx context.Context, places []models.VisitedPlace) ([]models.Phrase, error) {
	generated, err := s.generator.GenerateForLocations(ctx, places)
	if err != nil {
		return nil, err
	}
	if len(generated) == 0 {
		return generated, nil
	}

	persisted, err := s.cache.CachePhrases(ctx, generated)
	if err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("cache_phrases").Inc()
		infoLog("Failed to cache generated phrases, returning uncached: %v", err)
		return generated, nil
	}
	return persisted, nil
}

// GetLanguagePhrases returns phrases for a single country or language. It never
// fails: when the cache has nothing and generation is refused or fails, the mock
// phrases are returned with Source "mock".
func (s *PhrasebookService) GetLanguagePhrases(ctx context.Context, country string) *PhrasebookResult {
	cached := s.cache.GetCachedPhrases(ctx)
	var matching []models.Phrase
	for i := range cached.Phrases {
		if cached.Phrases[i].MatchesPlace(country) {
			matching = append(matching, cached.Phrases[i])
		}
	}
	if len(matching) > 0 {
		metrics.PhraseRequestsTotal.WithLabelValues(SourceCache).Inc()
		return &PhrasebookResult{Phrases: matching, Source: SourceCache, NeedsRefresh: cached.NeedsRefresh}
	}

	if status := s.limiter.CheckRequestLimit(ctx); !status.CanRequest {
		debugLog("Quota exhausted for %q, serving mock phrases", country)
		return mockResult()
	}

	generated, err := s.generator.GenerateForCountry(ctx, country)
	if err != nil || len(generated) == 0 {
		if err != nil {
			infoLog("Falling back to mock phrases for %q: %v", country, err)
		}
		return mockResult()
	}

	phrases := generated
	if persisted, err := s.cache.MergePhrases(ctx, generated); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("merge_phrases").Inc()
		infoLog("Failed to cache phrases for %q: %v", country, err)
	} else if len(persisted) > 0 {
		phrases = persisted
	}

	metrics.PhraseRequestsTotal.WithLabelValues(SourceGenerated).Inc()
	return &PhrasebookResult{Phrases: phrases, Source: SourceGenerated}
}

func mockResult() *PhrasebookResult {
	metrics.PhraseRequestsTotal.WithLabelValues(SourceMock).Inc()
	return &PhrasebookResult{Phrases: CreateMockPhrases(), Source: SourceMock}
}

// GetSettings returns the user's phrasebook settings, or defaults when none are
// stored or they cannot be read.
func (s *PhrasebookService) GetSettings(ctx context.Context) models.PhrasebookSettings {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return models.DefaultSettings()
	}

	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StoreErrorsTotal.WithLabelValues("get_settings").Inc()
			infoLog("Failed to load settings for %s: %v", userID, err)
		}
		return models.DefaultSettings()
	}
	if settings.FavoriteLanguages == nil {
		settings.FavoriteLanguages = []string{}
	}
	if settings.ExplorableCountries == nil {
		settings.ExplorableCountries = []string{}
	}
	return *settings
}

// UpdatePreferences replaces the user's favorite languages and explorable countries.
// A nil slice leaves that list unchanged.
func (s *PhrasebookService) UpdatePreferences(ctx context.Context, favoriteLanguages, explorableCountries []string) error {
	userID, ok := s.auth.CurrentUserID(ctx)
	if !ok {
		return ErrNoUser
	}
	err := s.store.MergeSettings(ctx, userID, store.SettingsPatch{
		FavoriteLanguages:   favoriteLanguages,
		ExplorableCountries: explorableCountries,
	})
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}
	return nil
}

// CreateMockPhrases returns the fixed phrases shown when nothing else is available
func CreateMockPhrases() []models.Phrase {
	now := time.Now()
	mock := []models.Phrase{
		{
			Language:      "French",
			PhraseText:    "Bonjour, comment allez-vous ?",
			Translation:   "Hello, how are you?",
			UseContext:    "Polite greeting when entering a shop or meeting someone",
			Pronunciation: "bohn-ZHOOR, koh-MAHN tah-lay VOO",
			Region:        "France",
			Category:      "greeting",
		},
		{
			Language:      "Spanish",
			PhraseText:    "¿Dónde está el baño?",
			Translation:   "Where is the bathroom?",
			UseContext:    "Asking for directions in restaurants or public places",
			Pronunciation: "DOHN-deh es-TAH el BAH-nyoh",
			Region:        "Spain",
			Category:      "directions",
		},
		{
			Language:      "Japanese",
			PhraseText:    "すみません",
			Translation:   "Excuse me / I'm sorry",
			UseContext:    "Getting attention, apologizing, or thanking someone for trouble",
			Pronunciation: "soo-mee-mah-sen",
			Region:        "Japan",
			Category:      "culture",
		},
		{
			Language:      "Italian",
			PhraseText:    "Il conto, per favore",
			Translation:   "The check, please",
			UseContext:    "Asking for the bill at a restaurant",
			Pronunciation: "eel KOHN-toh, pehr fah-VOH-reh",
			Region:        "Italy",
			Category:      "dining",
		},
	}
	for i := range mock {
		mock[i].ID = fmt.Sprintf("mock-%d", i+1)
		mock[i].CreatedAt = now
		mock[i].UpdatedAt = now
	}
	return mock
}
