package model

import "time"

// Prayer represents a single prayer request
type Prayer struct {
	PrayerID          int64      `json:"prayerId"`
	UserProfileID     int64      `json:"userProfileId"`
	PrayerSubjectID   *int64     `json:"prayerSubjectId,omitempty"`
	Title             string     `json:"title"`
	PrayerDescription string     `json:"prayerDescription"`
	IsPrivate         bool       `json:"isPrivate"`
	IsAnswered        bool       `json:"isAnswered"`
	DatetimeAnswered  *time.Time `json:"datetimeAnswered"`
	PrayerPriority    int        `json:"prayerPriority"`
	PrayerType        string     `json:"prayerType"`
	DisplaySequence   int        `json:"displaySequence"`
	Audit
}

// PrayerAccess grants a user or group visibility of a prayer
type PrayerAccess struct {
	PrayerAccessID int64  `json:"prayerAccessId"`
	PrayerID       int64  `json:"prayerId"`
	AccessType     string `json:"accessType"`
	AccessTypeID   int64  `json:"accessTypeId"`
	Audit
}

// Access types accepted by the prayer access endpoint
const (
	AccessTypeUser  = "user"
	AccessTypeGroup = "group"
)
