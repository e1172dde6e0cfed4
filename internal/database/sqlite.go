package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/phrasebook/internal/models"
)

const (
	// PhrasesTable holds the generation cache
	PhrasesTable = "phrases"
	// SavedPhrasesTable holds user-curated phrases
	SavedPhrasesTable = "saved_phrases"
)

// Open connects to the sqlite database at dbPath, creating its directory if needed,
// then migrates the schema.
func Open(dbPath string, logSQL bool) (*gorm.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" && !isMemoryDSN(dbPath) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	logLevel := logger.Warn
	if logSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connected successfully")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// Migrate auto-migrates the schema and runs data migrations.
// Both phrase tables share the models.Phrase layout.
func Migrate(db *gorm.DB) error {
	if err := db.Table(PhrasesTable).AutoMigrate(&models.Phrase{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", PhrasesTable, err)
	}
	if err := db.Table(SavedPhrasesTable).AutoMigrate(&models.Phrase{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", SavedPhrasesTable, err)
	}
	if err := db.AutoMigrate(&models.PhrasebookSettings{}); err != nil {
		return fmt.Errorf("failed to migrate settings: %w", err)
	}
	return RunMigrations(db)
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file:")
}
