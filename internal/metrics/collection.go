package metrics

import (
	"log"

	"gorm.io/gorm"

	"github.com/codyseavey/phrasebook/internal/database"
)

// UpdateStoreMetrics queries the database and updates phrase-count gauges.
// Call this periodically; it is a no-op without a SQL database.
func UpdateStoreMetrics(db *gorm.DB) {
	if db == nil {
		return
	}

	var cached int64
	if err := db.Table(database.PhrasesTable).Count(&cached).Error; err != nil {
		log.Printf("Metrics: failed to count cached phrases: %v", err)
	} else {
		CachedPhrasesTotal.Set(float64(cached))
	}

	var saved int64
	if err := db.Table(database.SavedPhrasesTable).Count(&saved).Error; err != nil {
		log.Printf("Metrics: failed to count saved phrases: %v", err)
	} else {
		SavedPhrasesTotal.Set(float64(saved))
	}

	type languageCount struct {
		Language string
		Count    int64
	}
	var counts []languageCount
	if err := db.Table(database.SavedPhrasesTable).
		Select("language, COUNT(*) as count").
		Group("language").
		Scan(&counts).Error; err != nil {
		log.Printf("Metrics: failed to count saved phrases by language: %v", err)
	} else {
		SavedPhrasesByLanguage.Reset()
		for _, lc := range counts {
			SavedPhrasesByLanguage.WithLabelValues(lc.Language).Set(float64(lc.Count))
		}
	}
}
