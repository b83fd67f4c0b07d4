package model

// Prayer subject kinds
const (
	SubjectIndividual = "individual"
	SubjectFamily     = "family"
	SubjectGroup      = "group"
)

// PrayerSubject is a person or circle the user prays for
type PrayerSubject struct {
	PrayerSubjectID          int64    `json:"prayerSubjectId"`
	UserProfileID            int64    `json:"userProfileId"`
	PrayerSubjectType        string   `json:"prayerSubjectType"`
	PrayerSubjectDisplayName string   `json:"prayerSubjectDisplayName"`
	Notes                    string   `json:"notes,omitempty"`
	LinkedUserProfileID      *int64   `json:"linkedUserProfileId,omitempty"`
	DisplaySequence          int      `json:"displaySequence"`
	Prayers                  []Prayer `json:"prayers,omitempty"`
	Audit
}
