// Package server is an in-memory implementation of the prayer list REST API,
// used for local development and for end-to-end tests of the client.
package server

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/existflow/prayerlist/internal/logger"
)

// Options configures a Server.
type Options struct {
	// Secret signs access tokens. A random one is generated when empty.
	Secret   []byte
	TokenTTL time.Duration
	Logger   *logger.Logger

	// SendResetCode delivers password reset codes. The default logs them.
	SendResetCode func(email, code string)
}

// Server is the reference API server
type Server struct {
	echo   *echo.Echo
	data   *data
	secret []byte
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time

	sendResetCode func(email, code string)

	// generation is embedded in every token; bumping it revokes them all.
	generation atomic.Int64
}

// New creates a server with an empty data set.
func New(opts Options) (*Server, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if len(opts.Secret) == 0 {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		opts.Secret = secret
	}
	if opts.SendResetCode == nil {
		log := opts.Logger
		opts.SendResetCode = func(email, code string) {
			log.Info("Password reset code", logger.F("email", email), logger.F("code", code))
		}
	}

	s := &Server{
		data:   newData(),
		secret: opts.Secret,
		ttl:    opts.TokenTTL,
		log:    opts.Logger,
		now:    time.Now,

		sendResetCode: opts.SendResetCode,
	}
	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			res := c.Response()
			s.log.Info("HTTP Response",
				logger.F("method", req.Method),
				logger.F("uri", req.RequestURI),
				logger.F("status", res.Status),
				logger.F("size", res.Size),
				logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)),
				logger.F("duration", time.Since(start).String()))
			return err
		}
	})

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)

	// Public
	e.POST("/login", s.handleLogin)
	e.POST("/signup", s.handleSignup)
	e.GET("/check-username", s.handleCheckUsername)
	e.POST("/auth/forgot-password", s.handleForgotPassword)
	e.POST("/auth/verify-reset-code", s.handleVerifyResetCode)
	e.POST("/auth/reset-password", s.handleResetPassword)

	p := e.Group("", s.authMiddleware)
	p.POST("/users/push-token", s.handlePushToken)

	u := p.Group("/users/:userId", s.sameUser)
	u.PATCH("", s.handleUpdateProfile)
	u.PATCH("/password", s.handleChangePassword)
	u.DELETE("/account", s.handleDeleteAccount)
	u.GET("/prayers", s.handleUserPrayers)
	u.POST("/prayers", s.handleCreateUserPrayer)
	u.PATCH("/prayers/reorder", s.handleReorderUserPrayers)
	u.GET("/groups", s.handleUserGroups)
	u.PATCH("/groups/reorder", s.handleReorderUserGroups)
	u.GET("/prayer-subjects", s.handlePrayerSubjects)
	u.POST("/prayer-subjects", s.handleCreatePrayerSubject)
	u.PATCH("/prayer-subjects/reorder", s.handleReorderPrayerSubjects)
	u.GET("/notifications", s.handleNotifications)
	u.PATCH("/notifications/mark-all-read", s.handleMarkAllRead)
	u.PATCH("/notifications/:notificationId", s.handleToggleNotification)
	u.DELETE("/notifications/:notificationId", s.handleDeleteNotification)
	u.GET("/preferences", s.handlePreferences)
	u.PATCH("/preferences/:prefId", s.handleUpdatePreference)

	p.PUT("/prayers/:prayerId", s.handleUpdatePrayer)
	p.DELETE("/prayers/:prayerId", s.handleDeletePrayer)
	p.POST("/prayers/:prayerId/access", s.handleAddAccess)
	p.DELETE("/prayers/:prayerId/access/:accessId", s.handleRemoveAccess)

	p.POST("/groups", s.handleCreateGroup)
	p.PUT("/groups/:groupId", s.handleUpdateGroup)
	p.DELETE("/groups/:groupId", s.handleDeleteGroup)
	p.POST("/groups/:groupId/join", s.handleJoinGroup)
	p.POST("/groups/:groupId/invite", s.handleCreateInvite)
	p.DELETE("/groups/:groupId/users/:memberId", s.handleLeaveGroup)
	p.GET("/groups/:groupId/users", s.handleGroupUsers)
	p.GET("/groups/:groupId/prayers", s.handleGroupPrayers)
	p.POST("/groups/:groupId/prayers", s.handleCreateGroupPrayer)
	p.PATCH("/groups/:groupId/prayers/reorder", s.handleReorderGroupPrayers)

	p.PATCH("/prayer-subjects/:subjectId", s.handleUpdatePrayerSubject)
	p.DELETE("/prayer-subjects/:subjectId", s.handleDeletePrayerSubject)
	p.PATCH("/prayer-subjects/:subjectId/prayers/reorder", s.handleReorderSubjectPrayers)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info("API server listening", logger.F("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// RevokeTokens invalidates every token issued so far.
func (s *Server) RevokeTokens() {
	s.generation.Add(1)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
