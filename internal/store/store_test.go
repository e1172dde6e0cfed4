package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/phrasebook/internal/database"
	"github.com/codyseavey/phrasebook/internal/models"
)

// backends returns every store implementation available in this environment.
// Redis only runs when PHRASEBOOK_TEST_REDIS_URL points at a disposable instance.
func backends(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()

	b := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store {
			name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
			db, err := database.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), false)
			require.NoError(t, err)
			st := NewGormStore(db)
			t.Cleanup(func() { _ = st.Close() })
			return st
		},
	}

	if url := os.Getenv("PHRASEBOOK_TEST_REDIS_URL"); url != "" {
		b["redis"] = func(t *testing.T) Store {
			st, err := NewRedisStoreFromURL(url)
			require.NoError(t, err)
			opts, _ := redis.ParseURL(url)
			client := redis.NewClient(opts)
			require.NoError(t, client.FlushDB(context.Background()).Err())
			_ = client.Close()
			t.Cleanup(func() { _ = st.Close() })
			return st
		}
	}
	return b
}

func forEachBackend(t *testing.T, fn func(t *testing.T, st Store)) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			fn(t, open(t))
		})
	}
}

func TestStore_AddGetDelete(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		id, err := st.AddPhrase(ctx, "user-1", CollectionPhrases, models.Phrase{
			ID:         "phrase-123-0",
			Language:   "French",
			PhraseText: "Bonjour",
		})
		require.NoError(t, err)
		assert.NotEqual(t, "phrase-123-0", id, "store should assign its own id")

		got, err := st.GetPhrase(ctx, "user-1", CollectionPhrases, id)
		require.NoError(t, err)
		assert.Equal(t, "Bonjour", got.PhraseText)
		assert.False(t, got.CreatedAt.IsZero())

		// Scoped per user and per collection
		_, err = st.GetPhrase(ctx, "user-2", CollectionPhrases, id)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = st.GetPhrase(ctx, "user-1", CollectionSaved, id)
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, st.DeletePhrase(ctx, "user-1", CollectionPhrases, id))
		_, err = st.GetPhrase(ctx, "user-1", CollectionPhrases, id)
		assert.ErrorIs(t, err, ErrNotFound)

		// Deleting a missing phrase is not an error
		assert.NoError(t, st.DeletePhrase(ctx, "user-1", CollectionPhrases, "missing"))
	})
}

func TestStore_FindPhrases(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st Store) {
		ctx := context.Background()
		base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

		seed := []models.Phrase{
			{Language: "French", PhraseText: "Bonjour", IsFavorite: true, CreatedAt: base},
			{Language: "French", PhraseText: "Merci", CreatedAt: base.Add(time.Minute)},
			{Language: "Spanish", PhraseText: "Gracias", CreatedAt: base.Add(2 * time.Minute)},
		}
		for _, p := range seed {
			_, err := st.AddPhrase(ctx, "user-1", CollectionPhrases, p)
			require.NoError(t, err)
		}

		all, err := st.ListPhrases(ctx, "user-1", CollectionPhrases)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Bonjour", all[0].PhraseText, "ordered by creation time")
		assert.Equal(t, "Gracias", all[2].PhraseText)

		french, err := st.FindPhrases(ctx, "user-1", CollectionPhrases, Filter{Language: "French"})
		require.NoError(t, err)
		assert.Len(t, french, 2)

		exact, err := st.FindPhrases(ctx, "user-1", CollectionPhrases, ByText("French", "Merci"))
		require.NoError(t, err)
		require.Len(t, exact, 1)
		assert.Equal(t, "Merci", exact[0].PhraseText)

		favorites, err := st.FindPhrases(ctx, "user-1", CollectionPhrases, ByFavorite(true))
		require.NoError(t, err)
		require.Len(t, favorites, 1)
		assert.Equal(t, "Bonjour", favorites[0].PhraseText)

		nonFavorites, err := st.FindPhrases(ctx, "user-1", CollectionPhrases, ByFavorite(false))
		require.NoError(t, err)
		assert.Len(t, nonFavorites, 2)

		empty, err := st.ListPhrases(ctx, "nobody", CollectionPhrases)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})
}

func TestStore_MergePhrase(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		id, err := st.AddPhrase(ctx, "user-1", CollectionPhrases, models.Phrase{Language: "Italian", PhraseText: "Ciao"})
		require.NoError(t, err)

		fav := true
		require.NoError(t, st.MergePhrase(ctx, "user-1", CollectionPhrases, id, PhrasePatch{IsFavorite: &fav}))

		got, err := st.GetPhrase(ctx, "user-1", CollectionPhrases, id)
		require.NoError(t, err)
		assert.True(t, got.IsFavorite)
		assert.Equal(t, "Ciao", got.PhraseText, "merge keeps other fields")

		err = st.MergePhrase(ctx, "user-1", CollectionPhrases, "missing", PhrasePatch{IsFavorite: &fav})
		assert.True(t, errors.Is(err, ErrNotFound), "merge into missing phrase should be ErrNotFound, got %v", err)
	})
}

func TestStore_Settings(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		_, err := st.GetSettings(ctx, "user-1")
		assert.ErrorIs(t, err, ErrNotFound)

		lastUpdated := int64(1_700_000_000_000)
		require.NoError(t, st.MergeSettings(ctx, "user-1", SettingsPatch{LastUpdatedAt: &lastUpdated}))

		day := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
		require.NoError(t, st.MergeSettings(ctx, "user-1", SettingsPatch{
			RequestLimits: &models.RequestLimitInfo{RequestCount: 2, LastRequestDate: day},
		}))
		require.NoError(t, st.MergeSettings(ctx, "user-1", SettingsPatch{
			FavoriteLanguages: []string{"French", "Japanese"},
		}))

		settings, err := st.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, lastUpdated, settings.LastUpdatedAt, "earlier merge preserved")
		require.NotNil(t, settings.RequestLimits)
		assert.Equal(t, 2, settings.RequestLimits.RequestCount)
		assert.True(t, settings.RequestLimits.LastRequestDate.Equal(day))
		assert.Nil(t, settings.RequestLimits.NextAvailableTime)
		assert.Equal(t, []string{"French", "Japanese"}, settings.FavoriteLanguages)

		_, err = st.GetSettings(ctx, "user-2")
		assert.ErrorIs(t, err, ErrNotFound, "settings are per user")
	})
}

func TestStore_SettingsListsAreCopied(t *testing.T) {
	forEachBackend(t, func(t *testing.T, st Store) {
		ctx := context.Background()

		languages := []string{"French", "Japanese"}
		require.NoError(t, st.MergeSettings(ctx, "user-1", SettingsPatch{FavoriteLanguages: languages}))
		languages[0] = "Klingon"

		settings, err := st.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		settings.FavoriteLanguages[1] = "Elvish"

		settings, err = st.GetSettings(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"French", "Japanese"}, settings.FavoriteLanguages)
	})
}

func TestFilterMatches(t *testing.T) {
	p := &models.Phrase{Language: "French", PhraseText: "Merci", IsFavorite: false}

	tests := []struct {
		name     string
		filter   Filter
		expected bool
	}{
		{"empty filter", Filter{}, true},
		{"language match", Filter{Language: "French"}, true},
		{"language mismatch", Filter{Language: "German"}, false},
		{"text match", ByText("French", "Merci"), true},
		{"text mismatch", ByText("French", "Bonjour"), false},
		{"favorite false", ByFavorite(false), true},
		{"favorite true", ByFavorite(true), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(p); got != tt.expected {
				t.Errorf("Matches() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCollectionValid(t *testing.T) {
	assert.True(t, CollectionPhrases.Valid())
	assert.True(t, CollectionSaved.Valid())
	assert.False(t, Collection("settings").Valid())

	_, err := NewMemoryStore().ListPhrases(context.Background(), "user-1", Collection("bogus"))
	assert.Error(t, err)
}
