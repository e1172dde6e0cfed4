package store

import (
	"fmt"
	"log"

	"github.com/codyseavey/phrasebook/internal/config"
	"github.com/codyseavey/phrasebook/internal/database"
)

// Open creates the backend selected by cfg.Backend
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "sqlite", "":
		db, err := database.Open(cfg.DBPath, cfg.LogSQL)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		log.Printf("Store: sqlite (%s)", cfg.DBPath)
		return NewGormStore(db), nil
	case "redis":
		st, err := NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		log.Println("Store: redis")
		return st, nil
	case "memory":
		log.Println("Store: in-memory (data is lost on restart)")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}
