package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/store"
)

const testUser = "user-1"

// fakeClock is a settable Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// staticAuth always reports the same user; an empty id means signed out
type staticAuth string

func (a staticAuth) CurrentUserID(context.Context) (string, bool) {
	return string(a), a != ""
}

// fakeProvider returns a canned response and counts calls
type fakeProvider struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
	prompts  []string
}

func (p *fakeProvider) Generate(_ context.Context, req GenerationRequest) (json.RawMessage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.prompts = append(p.prompts, req.Prompt)
	if p.err != nil {
		return nil, p.err
	}
	return json.RawMessage(p.response), nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// failingStore wraps a store and fails selected operations
type failingStore struct {
	store.Store
	failGetSettings   bool
	failMergeSettings bool
	failAddPhrase     bool
	failList          bool
}

var errStoreDown = errors.New("store unavailable")

func (s *failingStore) GetSettings(ctx context.Context, userID string) (*models.PhrasebookSettings, error) {
	if s.failGetSettings {
		return nil, errStoreDown
	}
	return s.Store.GetSettings(ctx, userID)
}

func (s *failingStore) MergeSettings(ctx context.Context, userID string, patch store.SettingsPatch) error {
	if s.failMergeSettings {
		return errStoreDown
	}
	return s.Store.MergeSettings(ctx, userID, patch)
}

func (s *failingStore) AddPhrase(ctx context.Context, userID string, coll store.Collection, p models.Phrase) (string, error) {
	if s.failAddPhrase {
		return "", errStoreDown
	}
	return s.Store.AddPhrase(ctx, userID, coll, p)
}

func (s *failingStore) ListPhrases(ctx context.Context, userID string, coll store.Collection) ([]models.Phrase, error) {
	if s.failList {
		return nil, errStoreDown
	}
	return s.Store.ListPhrases(ctx, userID, coll)
}

// testNow is mid-afternoon UTC so day arithmetic has room on both sides
var testNow = time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)

const parisResponse = `[
	{"language":"French","phrase":"Bonjour","translation":"Hello","context":"Greeting shopkeepers","pronunciation":"bohn-ZHOOR","region":"France","category":"greeting"},
	{"language":"French","phrase":"L'addition, s'il vous plaît","translation":"The check, please","context":"End of a meal","pronunciation":"lah-dee-SYOHN seel voo PLEH","region":"France","category":"dining"},
	{"language":"French","phrase":"Où est le métro ?","translation":"Where is the metro?","context":"Finding transport","pronunciation":"oo eh luh may-TROH","region":"France","category":"directions"}
]`

// testPhrasebook wires a full service graph over an in-memory store
type testPhrasebook struct {
	store    *store.MemoryStore
	clock    *fakeClock
	provider *fakeProvider
	svc      *PhrasebookService
}

func newTestPhrasebook(response string) *testPhrasebook {
	st := store.NewMemoryStore()
	clock := newFakeClock(testNow)
	provider := &fakeProvider{response: response}
	svc := NewPhrasebook(st, provider, staticAuth(testUser), PhrasebookOptions{
		Clock:    clock,
		Location: time.UTC,
	})
	return &testPhrasebook{store: st, clock: clock, provider: provider, svc: svc}
}

func setLimits(st store.Store, limits models.RequestLimitInfo) {
	_ = st.MergeSettings(context.Background(), testUser, store.SettingsPatch{RequestLimits: &limits})
}
