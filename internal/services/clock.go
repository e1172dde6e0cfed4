package services

import (
	"context"
	"time"
)

// Clock supplies the current time so day rollover can be tested deterministically
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AuthContext exposes the current user. Operations that touch the store
// do nothing (or return defaults) when there is no user.
type AuthContext interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// IsSameLocalDay reports whether a and b fall on the same calendar day in a's location
func IsSameLocalDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// NextLocalMidnight returns the start of the day after t, in t's location
func NextLocalMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}
