package model

// Notification types
const (
	NotificationPrayerCreatedForYou   = "PRAYER_CREATED_FOR_YOU"
	NotificationPrayerEditedBySubject = "PRAYER_EDITED_BY_SUBJECT"
	NotificationPrayerShared          = "PRAYER_SHARED"
	NotificationGroupInvite           = "GROUP_INVITE"
	NotificationGroupMemberJoined     = "GROUP_MEMBER_JOINED"
)

// Notification read states
const (
	NotificationRead   = "READ"
	NotificationUnread = "UNREAD"
)

// Notification is an in-app notification
type Notification struct {
	NotificationID      int64  `json:"notificationId"`
	UserProfileID       int64  `json:"userProfileId"`
	NotificationType    string `json:"notificationType"`
	NotificationMessage string `json:"notificationMessage"`
	NotificationStatus  string `json:"notificationStatus"`
	Audit
}

// IsUnread reports whether the notification has not been read yet.
func (n Notification) IsUnread() bool {
	return n.NotificationStatus == NotificationUnread
}

// Toggled returns the opposite read state.
func (n Notification) Toggled() Notification {
	if n.IsUnread() {
		n.NotificationStatus = NotificationRead
	} else {
		n.NotificationStatus = NotificationUnread
	}
	return n
}
