package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/phrasebook/internal/database"
	"github.com/codyseavey/phrasebook/internal/models"
)

// GormStore implements Store on a SQL database through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already migrated database
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying handle for metrics collection
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func tableFor(coll Collection) (string, error) {
	switch coll {
	case CollectionPhrases:
		return database.PhrasesTable, nil
	case CollectionSaved:
		return database.SavedPhrasesTable, nil
	}
	return "", fmt.Errorf("unknown collection %q", coll)
}

func (s *GormStore) phrases(ctx context.Context, userID string, coll Collection) (*gorm.DB, error) {
	table, err := tableFor(coll)
	if err != nil {
		return nil, err
	}
	return s.db.WithContext(ctx).Table(table).Where("user_id = ?", userID), nil
}

func (s *GormStore) ListPhrases(ctx context.Context, userID string, coll Collection) ([]models.Phrase, error) {
	return s.FindPhrases(ctx, userID, coll, Filter{})
}

func (s *GormStore) FindPhrases(ctx context.Context, userID string, coll Collection, filter Filter) ([]models.Phrase, error) {
	q, err := s.phrases(ctx, userID, coll)
	if err != nil {
		return nil, err
	}
	if filter.Language != "" {
		q = q.Where("language = ?", filter.Language)
	}
	if filter.PhraseText != "" {
		q = q.Where("phrase_text = ?", filter.PhraseText)
	}
	if filter.IsFavorite != nil {
		q = q.Where("is_favorite = ?", *filter.IsFavorite)
	}

	phrases := []models.Phrase{}
	if err := q.Order("created_at ASC, id ASC").Find(&phrases).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", coll, err)
	}
	return phrases, nil
}

func (s *GormStore) GetPhrase(ctx context.Context, userID string, coll Collection, id string) (*models.Phrase, error) {
	q, err := s.phrases(ctx, userID, coll)
	if err != nil {
		return nil, err
	}

	var phrase models.Phrase
	if err := q.Where("id = ?", id).First(&phrase).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load phrase %s: %w", id, err)
	}
	return &phrase, nil
}

func (s *GormStore) AddPhrase(ctx context.Context, userID string, coll Collection, phrase models.Phrase) (string, error) {
	table, err := tableFor(coll)
	if err != nil {
		return "", err
	}

	phrase.ID = uuid.New().String()
	phrase.UserID = userID
	stampPhrase(&phrase)

	if err := s.db.WithContext(ctx).Table(table).Create(&phrase).Error; err != nil {
		return "", fmt.Errorf("failed to add phrase to %s: %w", coll, err)
	}
	return phrase.ID, nil
}

func (s *GormStore) MergePhrase(ctx context.Context, userID string, coll Collection, id string, patch PhrasePatch) error {
	q, err := s.phrases(ctx, userID, coll)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if patch.IsFavorite != nil {
		updates["is_favorite"] = *patch.IsFavorite
	}

	result := q.Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update phrase %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePhrase(ctx context.Context, userID string, coll Collection, id string) error {
	q, err := s.phrases(ctx, userID, coll)
	if err != nil {
		return err
	}
	if err := q.Where("id = ?", id).Delete(&models.Phrase{}).Error; err != nil {
		return fmt.Errorf("failed to delete phrase %s: %w", id, err)
	}
	return nil
}

func (s *GormStore) GetSettings(ctx context.Context, userID string) (*models.PhrasebookSettings, error) {
	var settings models.PhrasebookSettings
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// MergeSettings upserts the settings row, only overwriting the patched columns
// when the row already exists.
func (s *GormStore) MergeSettings(ctx context.Context, userID string, patch SettingsPatch) error {
	settings := models.DefaultSettings()
	settings.UserID = userID
	patch.Apply(&settings)

	columns := []string{"updated_at"}
	if patch.LastUpdatedAt != nil {
		columns = append(columns, "last_updated_at")
	}
	if patch.FavoriteLanguages != nil {
		columns = append(columns, "favorite_languages")
	}
	if patch.ExplorableCountries != nil {
		columns = append(columns, "explorable_countries")
	}
	if patch.RequestLimits != nil {
		columns = append(columns, "request_limits")
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(&settings).Error
	if err != nil {
		return fmt.Errorf("failed to merge settings: %w", err)
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
