package models

import "time"

// RequestLimitInfo tracks generation requests made on LastRequestDate.
// A LastRequestDate on an earlier day means the count is effectively zero,
// but the stored value is only reset on the next write.
type RequestLimitInfo struct {
	RequestCount      int        `json:"request_count"`
	LastRequestDate   time.Time  `json:"last_request_date"`
	NextAvailableTime *time.Time `json:"next_available_time,omitempty"`
}

// PhrasebookSettings is the per-user settings singleton (settings/phrasebook).
type PhrasebookSettings struct {
	UserID              string            `gorm:"primaryKey;size:128" json:"-"`
	LastUpdatedAt       int64             `gorm:"default:0" json:"last_updated_at"` // epoch millis of last cache refresh
	FavoriteLanguages   []string          `gorm:"type:text;serializer:json" json:"favorite_languages"`
	ExplorableCountries []string          `gorm:"type:text;serializer:json" json:"explorable_countries"`
	RequestLimits       *RequestLimitInfo `gorm:"type:text;serializer:json" json:"request_limits,omitempty"`
	UpdatedAt           time.Time         `json:"-"`
}

func (PhrasebookSettings) TableName() string {
	return "phrasebook_settings"
}

// DefaultSettings returns the settings used when none are stored or loading fails
func DefaultSettings() PhrasebookSettings {
	return PhrasebookSettings{
		FavoriteLanguages:   []string{},
		ExplorableCountries: []string{},
	}
}

// LastUpdatedAtTime converts LastUpdatedAt to a time.Time. Zero means never refreshed.
func (s *PhrasebookSettings) LastUpdatedAtTime() time.Time {
	if s == nil || s.LastUpdatedAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastUpdatedAt)
}
