package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codyseavey/phrasebook/internal/models"
)

// MemoryStore implements Store using in-memory maps
type MemoryStore struct {
	mu       sync.RWMutex
	phrases  map[string]map[Collection]map[string]models.Phrase
	settings map[string]models.PhrasebookSettings
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		phrases:  make(map[string]map[Collection]map[string]models.Phrase),
		settings: make(map[string]models.PhrasebookSettings),
	}
}

func (s *MemoryStore) collection(userID string, coll Collection, create bool) map[string]models.Phrase {
	byColl, ok := s.phrases[userID]
	if !ok {
		if !create {
			return nil
		}
		byColl = make(map[Collection]map[string]models.Phrase)
		s.phrases[userID] = byColl
	}
	docs, ok := byColl[coll]
	if !ok && create {
		docs = make(map[string]models.Phrase)
		byColl[coll] = docs
	}
	return docs
}

func (s *MemoryStore) ListPhrases(ctx context.Context, userID string, coll Collection) ([]models.Phrase, error) {
	return s.FindPhrases(ctx, userID, coll, Filter{})
}

func (s *MemoryStore) FindPhrases(_ context.Context, userID string, coll Collection, filter Filter) ([]models.Phrase, error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []models.Phrase{}
	for _, p := range s.collection(userID, coll, false) {
		if filter.Matches(&p) {
			result = append(result, p)
		}
	}
	sortPhrases(result)
	return result, nil
}

func (s *MemoryStore) GetPhrase(_ context.Context, userID string, coll Collection, id string) (*models.Phrase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.collection(userID, coll, false)[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *MemoryStore) AddPhrase(_ context.Context, userID string, coll Collection, phrase models.Phrase) (string, error) {
	if !coll.Valid() {
		return "", fmt.Errorf("unknown collection %q", coll)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	phrase.ID = uuid.New().String()
	phrase.UserID = userID
	stampPhrase(&phrase)
	s.collection(userID, coll, true)[phrase.ID] = phrase
	return phrase.ID, nil
}

func (s *MemoryStore) MergePhrase(_ context.Context, userID string, coll Collection, id string, patch PhrasePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.collection(userID, coll, false)
	p, ok := docs[id]
	if !ok {
		return ErrNotFound
	}
	if patch.IsFavorite != nil {
		p.IsFavorite = *patch.IsFavorite
	}
	p.UpdatedAt = time.Now()
	docs[id] = p
	return nil
}

func (s *MemoryStore) DeletePhrase(_ context.Context, userID string, coll Collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collection(userID, coll, false), id)
	return nil
}

func (s *MemoryStore) GetSettings(_ context.Context, userID string) (*models.PhrasebookSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	if settings.RequestLimits != nil {
		limits := *settings.RequestLimits
		settings.RequestLimits = &limits
	}
	if settings.FavoriteLanguages != nil {
		settings.FavoriteLanguages = append([]string{}, settings.FavoriteLanguages...)
	}
	if settings.ExplorableCountries != nil {
		settings.ExplorableCountries = append([]string{}, settings.ExplorableCountries...)
	}
	return &settings, nil
}

func (s *MemoryStore) MergeSettings(_ context.Context, userID string, patch SettingsPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, ok := s.settings[userID]
	if !ok {
		settings = models.DefaultSettings()
		settings.UserID = userID
	}
	patch.Apply(&settings)
	s.settings[userID] = settings
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// stampPhrase fills in timestamps the caller did not set
func stampPhrase(p *models.Phrase) {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
}

// sortPhrases orders phrases by creation time, then id, matching the SQL backend
func sortPhrases(phrases []models.Phrase) {
	sort.SliceStable(phrases, func(i, j int) bool {
		if !phrases[i].CreatedAt.Equal(phrases[j].CreatedAt) {
			return phrases[i].CreatedAt.Before(phrases[j].CreatedAt)
		}
		return phrases[i].ID < phrases[j].ID
	})
}
