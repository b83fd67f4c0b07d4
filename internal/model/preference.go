package model

import "time"

// Well-known preference keys
const (
	PrefPrayerReminders = "prayerReminders"
	PrefNotifications   = "notificationsEnabled"
)

// UserPreference is a key/value setting stored server side
type UserPreference struct {
	UserPreferenceID int64     `json:"userPreferenceId"`
	UserID           int64     `json:"userId"`
	PreferenceKey    string    `json:"preferenceKey"`
	PreferenceValue  string    `json:"preferenceValue"`
	IsActive         bool      `json:"isActive"`
	DatetimeCreate   time.Time `json:"datetimeCreate"`
	DatetimeUpdate   time.Time `json:"datetimeUpdate"`
}
