package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/phrasebook/internal/auth"
	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/models"
)

const (
	// defaultRefreshInterval is how often the queue is drained
	defaultRefreshInterval = time.Minute
	// refreshRequestDelay spaces out provider calls between users
	refreshRequestDelay = 100 * time.Millisecond
)

type refreshJob struct {
	userID string
	places []models.VisitedPlace
}

// PhraseRefreshWorker regenerates stale phrasebooks in the background.
// Handlers queue a refresh when they serve a stale cache; the worker drains
// the queue on a ticker. Each user has at most one pending job.
type PhraseRefreshWorker struct {
	phrasebook *PhrasebookService
	interval   time.Duration
	delay      time.Duration
	mu         sync.RWMutex

	queue   []string
	pending map[string]refreshJob

	// Stats
	refreshedToday int
	skippedToday   int
	lastRunTime    time.Time
}

type RefreshStatus struct {
	LastRunTime    time.Time `json:"last_run_time"`
	NextRunTime    time.Time `json:"next_run_time"`
	QueueLength    int       `json:"queue_length"`
	RefreshedToday int       `json:"refreshed_today"`
	SkippedToday   int       `json:"skipped_today"`
}

// NewPhraseRefreshWorker creates a worker. interval <= 0 uses one minute.
func NewPhraseRefreshWorker(phrasebook *PhrasebookService, interval time.Duration) *PhraseRefreshWorker {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	return &PhraseRefreshWorker{
		phrasebook: phrasebook,
		interval:   interval,
		delay:      refreshRequestDelay,
		pending:    make(map[string]refreshJob),
	}
}

// QueueRefresh schedules a refresh for userID, replacing the places of any
// job already pending for that user. Returns the queue length.
func (w *PhraseRefreshWorker) QueueRefresh(userID string, places []models.VisitedPlace) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.pending[userID]; !ok {
		w.queue = append(w.queue, userID)
	}
	w.pending[userID] = refreshJob{userID: userID, places: places}

	metrics.RefreshQueueDepth.Set(float64(len(w.queue)))
	return len(w.queue)
}

// Start drains the queue every interval until ctx is cancelled
func (w *PhraseRefreshWorker) Start(ctx context.Context) {
	log.Printf("Refresh worker started: draining queue every %v", w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Refresh worker stopping...")
			return
		case <-ticker.C:
			if refreshed := w.ProcessQueue(ctx); refreshed > 0 {
				log.Printf("Refresh worker: refreshed %d phrasebooks", refreshed)
			}
		}
	}
}

// ProcessQueue refreshes every queued phrasebook and returns how many succeeded.
// A user whose quota is exhausted is dropped from the queue; the next stale
// read queues them again.
func (w *PhraseRefreshWorker) ProcessQueue(ctx context.Context) (refreshed int) {
	jobs := w.takeAll()
	if len(jobs) == 0 {
		return 0
	}

	skipped := 0
	for i, job := range jobs {
		if ctx.Err() != nil {
			// Put the unprocessed jobs back for the next run
			for _, rest := range jobs[i:] {
				w.QueueRefresh(rest.userID, rest.places)
			}
			break
		}

		userCtx := auth.WithUserID(ctx, job.userID)
		phrases, err := w.phrasebook.RefreshPhrasebook(userCtx, job.places)
		var limitErr *LimitReachedError
		switch {
		case errors.As(err, &limitErr):
			skipped++
			debugLog("Refresh skipped for %s: %s", job.userID, limitErr.RetryMessage())
		case err != nil:
			log.Printf("Refresh worker: failed to refresh %s: %v", job.userID, err)
		default:
			refreshed++
			debugLog("Refreshed %d phrases for %s", len(phrases), job.userID)
		}

		if i < len(jobs)-1 && w.delay > 0 {
			time.Sleep(w.delay)
		}
	}

	w.mu.Lock()
	w.refreshedToday += refreshed
	w.skippedToday += skipped
	w.lastRunTime = time.Now()
	w.mu.Unlock()

	return refreshed
}

func (w *PhraseRefreshWorker) takeAll() []refreshJob {
	w.mu.Lock()
	defer w.mu.Unlock()

	jobs := make([]refreshJob, 0, len(w.queue))
	for _, userID := range w.queue {
		jobs = append(jobs, w.pending[userID])
	}
	w.queue = nil
	w.pending = make(map[string]refreshJob)
	metrics.RefreshQueueDepth.Set(0)
	return jobs
}

// GetStatus returns the current status
func (w *PhraseRefreshWorker) GetStatus() RefreshStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	next := time.Now().Add(w.interval)
	if !w.lastRunTime.IsZero() {
		next = w.lastRunTime.Add(w.interval)
	}

	return RefreshStatus{
		LastRunTime:    w.lastRunTime,
		NextRunTime:    next,
		QueueLength:    len(w.queue),
		RefreshedToday: w.refreshedToday,
		SkippedToday:   w.skippedToday,
	}
}
