// Package session holds the client's authenticated session and persists the
// parts of it that survive a restart.
package session

import "github.com/existflow/prayerlist/internal/model"

// Session is the single authenticated session of a running client.
type Session struct {
	Token           string      `json:"token"`
	User            *model.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	// IsTokenValidated is set once per process after the expiry check and is
	// never persisted.
	IsTokenValidated bool `json:"-"`
}

// Consistent reports whether IsAuthenticated is backed by a token and user.
func (s Session) Consistent() bool {
	if !s.IsAuthenticated {
		return true
	}
	return s.Token != "" && s.User != nil
}

// UserID returns the logged-in user's id, 0 when logged out.
func (s Session) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.UserProfileID
}

// Credentials are the saved username/password pair.
type Credentials struct {
	Username string
	Password string
}
