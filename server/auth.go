package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/existflow/prayerlist/internal/logger"
	"github.com/existflow/prayerlist/internal/model"
)

type signupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token,omitempty"`
	User    *model.User `json:"user"`
}

// handleSignup creates an account. It does not log the user in.
func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return fail(c, http.StatusBadRequest, "email, password, and first name are required")
	}
	if len(req.Password) < 6 {
		return fail(c, http.StatusBadRequest, "password must be at least 6 characters")
	}

	u, err := s.data.createUser(model.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       strings.TrimSpace(req.Email),
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}, req.Password, s.now())
	return reply(c, err, func() error {
		s.log.Info("User registered", logger.F("user_id", u.UserProfileID), logger.F("username", u.Username))
		return c.JSON(http.StatusCreated, authResponse{Message: "User created successfully", User: &u})
	})
}

// handleLogin accepts a username or an email address.
func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}

	u, ok := s.data.authenticate(req.Username, req.Password)
	if !ok {
		return fail(c, http.StatusUnauthorized, "invalid credentials")
	}
	token, err := s.issueToken(u.UserProfileID)
	if err != nil {
		return reply(c, err, nil)
	}

	s.log.Info("User logged in", logger.F("user_id", u.UserProfileID))
	return c.JSON(http.StatusOK, authResponse{Message: "Login successful", Token: token, User: &u})
}

func (s *Server) handleCheckUsername(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("username"))
	if name == "" {
		return fail(c, http.StatusBadRequest, "username required")
	}
	s.data.mu.Lock()
	taken := s.data.usernameTaken(name, 0)
	s.data.mu.Unlock()
	return c.JSON(http.StatusOK, map[string]any{"username": name, "available": !taken})
}

func (s *Server) handleUpdateProfile(c echo.Context) error {
	var req profilePatch
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	u, err := s.data.updateProfile(caller(c), req, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusOK, authResponse{Message: "Profile updated", User: &u})
	})
}

func (s *Server) handleChangePassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	// A wrong current password is a 400: a 401 here would end the session.
	err := s.data.changePassword(caller(c), req.OldPassword, req.NewPassword)
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Password updated")
	})
}

func (s *Server) handleDeleteAccount(c echo.Context) error {
	id := caller(c)
	s.data.deleteUser(id)
	s.log.Info("Account deleted", logger.F("user_id", id))
	return message(c, http.StatusOK, "Account deleted")
}

func (s *Server) handlePushToken(c echo.Context) error {
	var req struct {
		PushToken string `json:"pushToken"`
		Platform  string `json:"platform"`
	}
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	if req.PushToken == "" {
		return fail(c, http.StatusBadRequest, "pushToken required")
	}
	s.data.addPushToken(caller(c), req.PushToken, req.Platform)
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Push token registered"})
}
