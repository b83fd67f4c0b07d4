package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleNotifications(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.userNotifications(caller(c)))
}

func (s *Server) handleToggleNotification(c echo.Context) error {
	id, err := pathID(c, "notificationId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.toggleNotification(id, caller(c), s.now())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Notification updated")
	})
}

func (s *Server) handleDeleteNotification(c echo.Context) error {
	id, err := pathID(c, "notificationId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	err = s.data.deleteNotification(id, caller(c))
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Notification deleted")
	})
}

func (s *Server) handleMarkAllRead(c echo.Context) error {
	n := s.data.markAllRead(caller(c), s.now())
	return c.JSON(http.StatusOK, map[string]any{
		"message":      "Notifications marked as read",
		"updatedCount": n,
	})
}

func (s *Server) handlePreferences(c echo.Context) error {
	return c.JSON(http.StatusOK, s.data.userPreferences(caller(c)))
}

func (s *Server) handleUpdatePreference(c echo.Context) error {
	id, err := pathID(c, "prefId")
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error())
	}
	var in preferenceInput
	if err := bind(c, &in); err != nil {
		return reply(c, err, nil)
	}
	pref, err := s.data.updatePreference(id, caller(c), in, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusOK, pref)
	})
}
