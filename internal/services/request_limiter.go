package services

import (
	"context"
	"errors"
	"time"

	"github.com/codyseavey/phrasebook/internal/metrics"
	"github.com/codyseavey/phrasebook/internal/models"
	"github.com/codyseavey/phrasebook/internal/store"
)

const (
	// MaxDailyRequests is the number of generation calls a user gets per calendar day
	MaxDailyRequests = 5
)

// LimitStatus is the result of a quota check
type LimitStatus struct {
	CanRequest        bool       `json:"can_request"`
	RequestsRemaining int        `json:"requests_remaining"`
	NextAvailableTime *time.Time `json:"next_available_time,omitempty"`
}

// RequestLimiter gates generative provider calls behind a per-user daily quota
// stored in the settings document.
//
// Check and update are separate store round trips, so two concurrent requests
// from the same user can both pass the check before either increments. That
// race is accepted: usage is one user on one device.
type RequestLimiter struct {
	store    store.Store
	auth     AuthContext
	clock    Clock
	location *time.Location
	maxDaily int
}

// NewRequestLimiter creates a limiter. maxDaily <= 0 uses MaxDailyRequests;
// a nil location uses time.Local.
func NewRequestLimiter(st store.Store, auth AuthContext, clock Clock, location *time.Location, maxDaily int) *RequestLimiter {
	if maxDaily <= 0 {
		maxDaily = MaxDailyRequests
	}
	if location == nil {
		location = time.Local
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &RequestLimiter{
		store:    st,
		auth:     auth,
		clock:    clock,
		location: location,
		maxDaily: maxDaily,
	}
}

// MaxDaily returns the configured daily quota
func (l *RequestLimiter) MaxDaily() int {
	return l.maxDaily
}

func (l *RequestLimiter) now() time.Time {
	return l.clock.Now().In(l.location)
}

func (l *RequestLimiter) fullQuota() LimitStatus {
	return LimitStatus{CanRequest: true, RequestsRemaining: l.maxDaily}
}

// CheckRequestLimit reports the remaining quota for the current user.
//
// A stored date from an earlier day counts as zero requests but the reset is
// not written back; UpdateRequestCounter persists it on the next request.
// Store failures fail open with full quota.
func (l *RequestLimiter) CheckRequestLimit(ctx context.Context) LimitStatus {
	userID, ok := l.auth.CurrentUserID(ctx)
	if !ok {
		return l.fullQuota()
	}

	settings, err := l.store.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			metrics.StoreErrorsTotal.WithLabelValues("check_request_limit").Inc()
			infoLog("Failed to read request limits for %s, allowing request: %v", userID, err)
		}
		return l.fullQuota()
	}

	limits := settings.RequestLimits
	if limits == nil {
		return l.fullQuota()
	}

	now := l.now()
	if limits.LastRequestDate.IsZero() || !IsSameLocalDay(now, limits.LastRequestDate) {
		debugLog("Request limit: new day for %s (last=%s), full quota", userID, limits.LastRequestDate.Format(time.RFC3339))
		return l.fullQuota()
	}

	remaining := l.maxDaily - limits.RequestCount
	if remaining < 0 {
		remaining = 0
	}

	status := LimitStatus{
		CanRequest:        remaining > 0,
		RequestsRemaining: remaining,
	}
	if remaining == 0 {
		next := NextLocalMidnight(now)
		if limits.NextAvailableTime != nil {
			next = *limits.NextAvailableTime
		}
		status.NextAvailableTime = &next
	}

	debugLog("Request limit for %s: %d/%d used, remaining=%d", userID, limits.RequestCount, l.maxDaily, remaining)
	return status
}

// UpdateRequestCounter records one generation request for the current user.
// Call it right after the provider responds. Failures are logged, not returned.
func (l *RequestLimiter) UpdateRequestCounter(ctx context.Context) {
	userID, ok := l.auth.CurrentUserID(ctx)
	if !ok {
		return
	}

	var current models.RequestLimitInfo
	settings, err := l.store.GetSettings(ctx, userID)
	switch {
	case err == nil && settings.RequestLimits != nil:
		current = *settings.RequestLimits
	case err != nil && !errors.Is(err, store.ErrNotFound):
		// Writing without the stored count would reset it
		metrics.StoreErrorsTotal.WithLabelValues("update_request_counter").Inc()
		infoLog("Failed to read request limits for %s, counter not updated: %v", userID, err)
		return
	}

	now := l.now()
	updated := models.RequestLimitInfo{LastRequestDate: now}
	if current.LastRequestDate.IsZero() || !IsSameLocalDay(now, current.LastRequestDate) {
		updated.RequestCount = 1
	} else {
		updated.RequestCount = current.RequestCount + 1
	}

	if updated.RequestCount >= l.maxDaily {
		next := NextLocalMidnight(now)
		updated.NextAvailableTime = &next
	}

	if err := l.store.MergeSettings(ctx, userID, store.SettingsPatch{RequestLimits: &updated}); err != nil {
		metrics.StoreErrorsTotal.WithLabelValues("update_request_counter").Inc()
		infoLog("Failed to update request counter for %s: %v", userID, err)
		return
	}

	debugLog("Request counter for %s: %d/%d", userID, updated.RequestCount, l.maxDaily)
}

// ResetRequestCounter clears the quota for userID. Used by the admin surface.
func (l *RequestLimiter) ResetRequestCounter(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	reset := models.RequestLimitInfo{RequestCount: 0, LastRequestDate: l.now()}
	if err := l.store.MergeSettings(ctx, userID, store.SettingsPatch{RequestLimits: &reset}); err != nil {
		return err
	}
	infoLog("Request counter reset for %s", userID)
	return nil
}
