package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/existflow/prayerlist/internal/model"
)

// Notifications lists the user's notifications, newest first as sent by the server.
func (c *Client) Notifications(ctx context.Context, userID int64) ([]model.Notification, error) {
	var list []model.Notification
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   fmt.Sprintf("/users/%d/notifications", userID),
	}, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

// ToggleNotification flips a notification between READ and UNREAD.
func (c *Client) ToggleNotification(ctx context.Context, userID, notificationID int64) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/notifications/%d", userID, notificationID),
	}, nil)
}

// DeleteNotification removes a notification.
func (c *Client) DeleteNotification(ctx context.Context, userID, notificationID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/users/%d/notifications/%d", userID, notificationID),
	}, nil)
}

// MarkAllNotificationsRead marks every notification READ and returns how many changed.
func (c *Client) MarkAllNotificationsRead(ctx context.Context, userID int64) (int, error) {
	var res struct {
		Message      string `json:"message"`
		UpdatedCount int    `json:"updatedCount"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/notifications/mark-all-read", userID),
	}, &res); err != nil {
		return 0, err
	}
	return res.UpdatedCount, nil
}
