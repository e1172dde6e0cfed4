package database

import (
	"log"

	"gorm.io/gorm"
)

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateSavedFavorites(db); err != nil {
		return err
	}
	if err := migrateSettingsLists(db); err != nil {
		return err
	}
	return nil
}

// migrateSavedFavorites marks every saved phrase as a favorite. Older clients saved
// phrases without setting the flag, so the UI showed them as unstarred.
// This is safe to run multiple times as it only updates rows where is_favorite is false.
func migrateSavedFavorites(db *gorm.DB) error {
	result := db.Exec(`UPDATE ` + SavedPhrasesTable + ` SET is_favorite = 1 WHERE is_favorite = 0 OR is_favorite IS NULL`)
	if result.Error != nil {
		log.Printf("Warning: failed to backfill saved phrase favorites: %v", result.Error)
		return nil
	}
	if result.RowsAffected > 0 {
		log.Printf("Marked %d saved phrases as favorites", result.RowsAffected)
	}
	return nil
}

// migrateSettingsLists replaces NULL list columns with empty JSON arrays so
// settings decode to empty slices instead of nil.
func migrateSettingsLists(db *gorm.DB) error {
	if !db.Migrator().HasTable("phrasebook_settings") {
		return nil
	}

	db.Exec(`UPDATE phrasebook_settings SET favorite_languages = '[]' WHERE favorite_languages IS NULL OR favorite_languages = '' OR favorite_languages = 'null'`)
	db.Exec(`UPDATE phrasebook_settings SET explorable_countries = '[]' WHERE explorable_countries IS NULL OR explorable_countries = '' OR explorable_countries = 'null'`)

	return nil
}
