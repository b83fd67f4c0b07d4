package model

import "time"

// Audit is the bookkeeping block every server record carries.
type Audit struct {
	CreatedBy      int64     `json:"createdBy"`
	UpdatedBy      int64     `json:"updatedBy"`
	DatetimeCreate time.Time `json:"datetimeCreate"`
	DatetimeUpdate time.Time `json:"datetimeUpdate"`
	Deleted        bool      `json:"deleted"`
}

// User is a user profile as returned by the API
type User struct {
	UserProfileID int64  `json:"userProfileId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Admin         bool   `json:"admin"`
	EmailVerified bool   `json:"emailVerified"`
	PhoneVerified bool   `json:"phoneVerified"`
	Audit
}

// DisplayName returns "First Last", falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
