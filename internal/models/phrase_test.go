package models

import (
	"testing"
	"time"
)

func TestVisitedPlaceLocationName(t *testing.T) {
	tests := []struct {
		name     string
		place    VisitedPlace
		expected string
	}{
		{"Vicinity preferred", VisitedPlace{Name: "Louvre", Vicinity: "Paris"}, "Paris"},
		{"Falls back to name", VisitedPlace{Name: "Kyoto"}, "Kyoto"},
		{"Trims whitespace", VisitedPlace{Vicinity: "  Lisbon  "}, "Lisbon"},
		{"Blank vicinity uses name", VisitedPlace{Name: "Rome", Vicinity: "   "}, "Rome"},
		{"Nothing usable", VisitedPlace{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.place.LocationName(); got != tt.expected {
				t.Errorf("LocationName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPhraseSameText(t *testing.T) {
	a := &Phrase{ID: "1", Language: "French", PhraseText: "Bonjour"}
	b := &Phrase{ID: "2", Language: "French", PhraseText: "Bonjour", IsFavorite: true}
	c := &Phrase{ID: "3", Language: "Spanish", PhraseText: "Bonjour"}

	if !a.SameText(b) {
		t.Error("Expected phrases with same language and text to match")
	}
	if a.SameText(c) {
		t.Error("Expected phrases in different languages not to match")
	}
	if a.SameText(nil) {
		t.Error("Expected nil phrase not to match")
	}
	if a.Key() != b.Key() {
		t.Error("Expected equal keys for same language and text")
	}
}

func TestPhraseMatchesPlace(t *testing.T) {
	p := &Phrase{Language: "Japanese", Region: "Japan"}

	tests := []struct {
		place    string
		expected bool
	}{
		{"Japan", true},
		{"japan", true},
		{"JAPANESE", true},
		{"France", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.place, func(t *testing.T) {
			if got := p.MatchesPlace(tt.place); got != tt.expected {
				t.Errorf("MatchesPlace(%q) = %v, want %v", tt.place, got, tt.expected)
			}
		})
	}
}

func TestSettingsLastUpdatedAtTime(t *testing.T) {
	var nilSettings *PhrasebookSettings
	if !nilSettings.LastUpdatedAtTime().IsZero() {
		t.Error("Expected zero time for nil settings")
	}

	s := DefaultSettings()
	if !s.LastUpdatedAtTime().IsZero() {
		t.Error("Expected zero time for default settings")
	}

	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.LastUpdatedAt = ts.UnixMilli()
	if !s.LastUpdatedAtTime().Equal(ts) {
		t.Errorf("LastUpdatedAtTime() = %v, want %v", s.LastUpdatedAtTime(), ts)
	}
}
