package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/codyseavey/phrasebook/internal/models"
)

const (
	keyPhraseCollection = "phrasebook:%s:%s" // user, collection -> hash of id -> phrase JSON
	keySettings         = "phrasebook:%s:settings"
)

// RedisStore implements Store using Redis hashes.
// Equality queries load the user's collection and filter client-side; collections are small.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL creates a new Redis-backed store from a URL
func NewRedisStoreFromURL(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func collectionKey(userID string, coll Collection) string {
	return fmt.Sprintf(keyPhraseCollection, userID, coll)
}

func (s *RedisStore) ListPhrases(ctx context.Context, userID string, coll Collection) ([]models.Phrase, error) {
	return s.FindPhrases(ctx, userID, coll, Filter{})
}

func (s *RedisStore) FindPhrases(ctx context.Context, userID string, coll Collection, filter Filter) ([]models.Phrase, error) {
	if !coll.Valid() {
		return nil, fmt.Errorf("unknown collection %q", coll)
	}

	raw, err := s.client.HGetAll(ctx, collectionKey(userID, coll)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", coll, err)
	}

	phrases := make([]models.Phrase, 0, len(raw))
	for id, data := range raw {
		var p models.Phrase
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("failed to decode phrase %s: %w", id, err)
		}
		p.ID = id
		p.UserID = userID
		if filter.Matches(&p) {
			phrases = append(phrases, p)
		}
	}
	sortPhrases(phrases)
	return phrases, nil
}

func (s *RedisStore) GetPhrase(ctx context.Context, userID string, coll Collection, id string) (*models.Phrase, error) {
	data, err := s.client.HGet(ctx, collectionKey(userID, coll), id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load phrase %s: %w", id, err)
	}

	var p models.Phrase
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to decode phrase %s: %w", id, err)
	}
	p.ID = id
	p.UserID = userID
	return &p, nil
}

func (s *RedisStore) AddPhrase(ctx context.Context, userID string, coll Collection, phrase models.Phrase) (string, error) {
	if !coll.Valid() {
		return "", fmt.Errorf("unknown collection %q", coll)
	}

	phrase.ID = uuid.New().String()
	phrase.UserID = userID
	stampPhrase(&phrase)

	if err := s.writePhrase(ctx, userID, coll, &phrase); err != nil {
		return "", err
	}
	return phrase.ID, nil
}

func (s *RedisStore) writePhrase(ctx context.Context, userID string, coll Collection, p *models.Phrase) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode phrase: %w", err)
	}
	if err := s.client.HSet(ctx, collectionKey(userID, coll), p.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to write phrase %s: %w", p.ID, err)
	}
	return nil
}

// MergePhrase is a read-modify-write; concurrent merges on the same phrase are last-write-wins.
func (s *RedisStore) MergePhrase(ctx context.Context, userID string, coll Collection, id string, patch PhrasePatch) error {
	p, err := s.GetPhrase(ctx, userID, coll, id)
	if err != nil {
		return err
	}
	if patch.IsFavorite != nil {
		p.IsFavorite = *patch.IsFavorite
	}
	p.UpdatedAt = time.Now()
	return s.writePhrase(ctx, userID, coll, p)
}

func (s *RedisStore) DeletePhrase(ctx context.Context, userID string, coll Collection, id string) error {
	if err := s.client.HDel(ctx, collectionKey(userID, coll), id).Err(); err != nil {
		return fmt.Errorf("failed to delete phrase %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) GetSettings(ctx context.Context, userID string) (*models.PhrasebookSettings, error) {
	data, err := s.client.Get(ctx, fmt.Sprintf(keySettings, userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings models.PhrasebookSettings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	settings.UserID = userID
	return &settings, nil
}

func (s *RedisStore) MergeSettings(ctx context.Context, userID string, patch SettingsPatch) error {
	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		defaults := models.DefaultSettings()
		settings = &defaults
	}
	settings.UserID = userID
	patch.Apply(settings)

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := s.client.Set(ctx, fmt.Sprintf(keySettings, userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// Close closes the redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
