package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRequestLimitReached matches any *LimitReachedError via errors.Is
	ErrRequestLimitReached = errors.New("daily phrase request limit reached")

	// ErrProviderDisabled is returned when no generative provider is configured
	ErrProviderDisabled = errors.New("phrase provider not enabled")

	// ErrNoUser is returned by operations that need an authenticated user
	ErrNoUser = errors.New("no authenticated user")
)

// LimitReachedError is returned instead of calling the provider when the daily quota is used up
type LimitReachedError struct {
	NextAvailableTime *time.Time
}

func (e *LimitReachedError) Error() string {
	if e.NextAvailableTime == nil {
		return ErrRequestLimitReached.Error()
	}
	return fmt.Sprintf("%s, try again after %s", ErrRequestLimitReached, e.NextAvailableTime.Format("Jan 2 15:04 MST"))
}

func (e *LimitReachedError) Is(target error) bool {
	return target == ErrRequestLimitReached
}

// RetryMessage is the user-facing "try again later" text
func (e *LimitReachedError) RetryMessage() string {
	if e.NextAvailableTime == nil {
		return "You've reached today's phrase generation limit. Please try again tomorrow."
	}
	return fmt.Sprintf("You've reached today's phrase generation limit. Please try again after %s.",
		e.NextAvailableTime.Format("Mon Jan 2 15:04"))
}
