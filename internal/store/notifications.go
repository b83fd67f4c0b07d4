package store

import (
	"context"

	"github.com/existflow/prayerlist/internal/api"
	"github.com/existflow/prayerlist/internal/model"
)

func notifications(st *State) *Slice[model.Notification] { return &st.Notifications }

// FetchNotifications loads the user's notifications.
func (s *Store) FetchNotifications(ctx context.Context) error {
	return fetch(ctx, s, notifications, s.api.Notifications)
}

// ToggleNotification flips a notification between read and unread.
func (s *Store) ToggleNotification(ctx context.Context, id int64) error {
	return exec(ctx, s, notifications, StatusUpdating, func(ctx context.Context, userID int64) error {
		return s.api.ToggleNotification(ctx, userID, id)
	}, func(data []model.Notification) []model.Notification {
		return mapped(data, func(n model.Notification) model.Notification {
			if n.NotificationID == id {
				return n.Toggled()
			}
			return n
		})
	})
}

// DeleteNotification deletes a notification and drops it from the list.
func (s *Store) DeleteNotification(ctx context.Context, id int64) error {
	return exec(ctx, s, notifications, StatusDeleting, func(ctx context.Context, userID int64) error {
		return s.api.DeleteNotification(ctx, userID, id)
	}, func(data []model.Notification) []model.Notification {
		return without(data, func(n model.Notification) bool { return n.NotificationID == id })
	})
}

// MarkAllNotificationsRead marks every notification read and returns how many
// the server changed.
func (s *Store) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	return mutate(ctx, s, notifications, StatusUpdating, func(ctx context.Context, userID int64) (int, error) {
		return s.api.MarkAllNotificationsRead(ctx, userID)
	}, func(data []model.Notification, _ int) []model.Notification {
		return mapped(data, func(n model.Notification) model.Notification {
			n.NotificationStatus = model.NotificationRead
			return n
		})
	})
}

// UnreadCount counts unread notifications in the loaded list.
func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, item := range s.state.Notifications.Data {
		if item.IsUnread() {
			n++
		}
	}
	return n
}

func preferences(st *State) *Slice[model.UserPreference] { return &st.Preferences }

// FetchPreferences loads the user's preferences.
func (s *Store) FetchPreferences(ctx context.Context) error {
	return fetch(ctx, s, preferences, s.api.Preferences)
}

// UpdatePreference changes one preference and swaps in the server's record.
func (s *Store) UpdatePreference(ctx context.Context, id int64, in api.PreferenceUpdate) (*model.UserPreference, error) {
	return mutate(ctx, s, preferences, StatusUpdating,
		func(ctx context.Context, userID int64) (*model.UserPreference, error) {
			return s.api.UpdatePreference(ctx, userID, id, in)
		}, func(data []model.UserPreference, res *model.UserPreference) []model.UserPreference {
			if res == nil {
				return data
			}
			return replaced(data, func(p model.UserPreference) bool { return p.UserPreferenceID == id }, *res)
		})
}

// Preference returns the active preference stored under key.
func (s *Store) Preference(key string) (model.UserPreference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.state.Preferences.Data {
		if p.PreferenceKey == key && p.IsActive {
			return p, true
		}
	}
	return model.UserPreference{}, false
}
