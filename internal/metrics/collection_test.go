package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/phrasebook/internal/database"
	"github.com/codyseavey/phrasebook/internal/models"
)

func TestUpdateStoreMetrics(t *testing.T) {
	db, err := database.Open("file:metrics_test?mode=memory&cache=shared", false)
	require.NoError(t, err)

	cached := []models.Phrase{
		{ID: "c1", UserID: "user-1", Language: "French", PhraseText: "Bonjour"},
		{ID: "c2", UserID: "user-1", Language: "French", PhraseText: "Merci"},
		{ID: "c3", UserID: "user-2", Language: "Japanese", PhraseText: "すみません"},
	}
	require.NoError(t, db.Table(database.PhrasesTable).Create(&cached).Error)

	saved := []models.Phrase{
		{ID: "s1", UserID: "user-1", Language: "French", PhraseText: "Bonjour", IsFavorite: true},
		{ID: "s2", UserID: "user-2", Language: "Japanese", PhraseText: "すみません", IsFavorite: true},
	}
	require.NoError(t, db.Table(database.SavedPhrasesTable).Create(&saved).Error)

	UpdateStoreMetrics(db)

	assert.Equal(t, 3.0, testutil.ToFloat64(CachedPhrasesTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(SavedPhrasesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(SavedPhrasesByLanguage.WithLabelValues("Japanese")))
}

func TestUpdateStoreMetrics_NilDB(t *testing.T) {
	assert.NotPanics(t, func() { UpdateStoreMetrics(nil) })
}
