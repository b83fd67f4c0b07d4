package store

import (
	"context"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
)

// AuthAPI is the account part of the remote API.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*api.LoginResponse, error)
	Signup(ctx context.Context, req api.SignupRequest) (*api.SignupResponse, error)
	UpdateProfile(ctx context.Context, userID int64, update api.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	DeleteAccount(ctx context.Context, userID int64) error
	RegisterPushToken(ctx context.Context, pushToken, platform string) (bool, error)
}

// PrayerAPI covers the user's own prayers and sharing.
type PrayerAPI interface {
	UserPrayers(ctx context.Context, userID int64) ([]model.Prayer, error)
	CreateUserPrayer(ctx context.Context, userID int64, in api.PrayerInput) (*api.CreatedPrayer, error)
	UpdatePrayer(ctx context.Context, prayerID int64, in api.PrayerInput) error
	DeletePrayer(ctx context.Context, prayerID int64) error
	ReorderUserPrayers(ctx context.Context, userID int64, ids []int64) error
	AddPrayerAccess(ctx context.Context, prayerID int64, accessType string, accessTypeID int64) (int64, error)
	RemovePrayerAccess(ctx context.Context, prayerID, accessID int64) error
}

// GroupAPI covers groups, their members and their prayers.
type GroupAPI interface {
	UserGroups(ctx context.Context, userID int64) ([]model.Group, error)
	CreateGroup(ctx context.Context, in api.GroupInput) (*model.Group, error)
	UpdateGroup(ctx context.Context, groupID int64, in api.GroupInput) error
	DeleteGroup(ctx context.Context, groupID int64) error
	JoinGroup(ctx context.Context, groupID int64, inviteCode string) error
	LeaveGroup(ctx context.Context, groupID, userID int64) error
	CreateGroupInvite(ctx context.Context, groupID int64) (string, error)
	GroupUsers(ctx context.Context, groupID int64) ([]model.User, error)
	GroupPrayers(ctx context.Context, groupID int64) ([]model.Prayer, error)
	CreateGroupPrayer(ctx context.Context, groupID int64, in api.PrayerInput) (*api.CreatedPrayer, error)
	ReorderUserGroups(ctx context.Context, userID int64, ids []int64) error
	ReorderGroupPrayers(ctx context.Context, groupID int64, ids []int64) error
}

// SubjectAPI covers prayer subjects.
type SubjectAPI interface {
	PrayerSubjects(ctx context.Context, userID int64) ([]model.PrayerSubject, error)
	CreatePrayerSubject(ctx context.Context, userID int64, in api.SubjectInput) (int64, error)
	UpdatePrayerSubject(ctx context.Context, subjectID int64, update api.SubjectUpdate) error
	DeletePrayerSubject(ctx context.Context, subjectID int64, reassignToSelf bool) error
	ReorderPrayerSubjects(ctx context.Context, userID int64, ids []int64) error
	ReorderSubjectPrayers(ctx context.Context, subjectID int64, ids []int64) error
}

// NotificationAPI covers in-app notifications.
type NotificationAPI interface {
	Notifications(ctx context.Context, userID int64) ([]model.Notification, error)
	ToggleNotification(ctx context.Context, userID, notificationID int64) error
	DeleteNotification(ctx context.Context, userID, notificationID int64) error
	MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error)
}

// PreferenceAPI covers user preferences.
type PreferenceAPI interface {
	Preferences(ctx context.Context, userID int64) ([]model.UserPreference, error)
	UpdatePreference(ctx context.Context, userID, prefID int64, in api.PreferenceUpdate) (*model.UserPreference, error)
}

// API is everything the store calls. *api.Client implements it.
type API interface {
	AuthAPI
	PrayerAPI
	GroupAPI
	SubjectAPI
	NotificationAPI
	PreferenceAPI
}

var _ API = (*api.Client)(nil)

func ids[E any](list []E, id func(E) int64) []int64 {
	out := make([]int64, len(list))
	for i, e := range list {
		out[i] = id(e)
	}
	return out
}
