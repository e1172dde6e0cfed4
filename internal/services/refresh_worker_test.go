package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/store"
)

func newTestWorker(response string) (*PhraseRefreshWorker, *store.MemoryStore, *fakeProvider) {
	st := store.NewMemoryStore()
	provider := &fakeProvider{response: response}
	svc := NewPhrasebook(st, provider, auth.ContextAuth{}, PhrasebookOptions{
		Clock:    newFakeClock(testNow),
		Location: time.UTC,
	})
	w := NewPhraseRefreshWorker(svc, time.Hour)
	w.delay = 0
	return w, st, provider
}

func TestQueueRefresh_DedupesPerUser(t *testing.T) {
	w, _, _ := newTestWorker(parisResponse)

	assert.Equal(t, 1, w.QueueRefresh("alice", paris))
	assert.Equal(t, 2, w.QueueRefresh("bob", paris))
	assert.Equal(t, 2, w.QueueRefresh("alice", []models.VisitedPlace{{Name: "Tokyo"}}))

	assert.Equal(t, 2, w.GetStatus().QueueLength)
	assert.Equal(t, "Tokyo", w.pending["alice"].places[0].Name, "the latest places win")
}

func TestProcessQueue(t *testing.T) {
	w, st, provider := newTestWorker(parisResponse)
	ctx := context.Background()

	w.QueueRefresh("alice", paris)
	w.QueueRefresh("bob", paris)

	// bob has no quota left today
	limits := models.RequestLimitInfo{RequestCount: 5, LastRequestDate: testNow}
	require.NoError(t, st.MergeSettings(ctx, "bob", store.SettingsPatch{RequestLimits: &limits}))

	refreshed := w.ProcessQueue(ctx)
	assert.Equal(t, 1, refreshed)
	assert.Equal(t, 1, provider.Calls())

	alice, err := st.ListPhrases(ctx, "alice", store.CollectionPhrases)
	require.NoError(t, err)
	assert.Len(t, alice, 3)

	bob, err := st.ListPhrases(ctx, "bob", store.CollectionPhrases)
	require.NoError(t, err)
	assert.Empty(t, bob)

	status := w.GetStatus()
	assert.Equal(t, 0, status.QueueLength)
	assert.Equal(t, 1, status.RefreshedToday)
	assert.Equal(t, 1, status.SkippedToday)
	assert.False(t, status.LastRunTime.IsZero())

	assert.Equal(t, 0, w.ProcessQueue(ctx), "an empty queue does nothing")
}

func TestProcessQueue_CancelledRequeues(t *testing.T) {
	w, _, provider := newTestWorker(parisResponse)
	w.QueueRefresh("alice", paris)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 0, w.ProcessQueue(ctx))
	assert.Equal(t, 0, provider.Calls())
	assert.Equal(t, 1, w.GetStatus().QueueLength)
}

func TestRefreshWorkerStartStops(t *testing.T) {
	w, _, _ := newTestWorker(parisResponse)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
