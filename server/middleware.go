package server

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const ctxUserID = "user_id"

type claims struct {
	Generation int64 `json:"gen"`
	jwt.RegisteredClaims
}

func randomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate token secret: %w", err)
	}
	return b, nil
}

func newRequestID() string {
	return uuid.NewString()
}

// issueToken signs an access token for userID.
func (s *Server) issueToken(userID int64) (string, error) {
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Generation: s.generation.Load(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(s.secret)
}

// authMiddleware checks the bearer token
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		auth := c.Request().Header.Get("Authorization")
		if auth == "" {
			return fail(c, http.StatusUnauthorized, "authorization required")
		}
		raw := strings.TrimPrefix(auth, "Bearer ")
		if raw == auth {
			return fail(c, http.StatusUnauthorized, "invalid authorization format")
		}

		var cl claims
		_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return fail(c, http.StatusUnauthorized, "token expired")
			}
			return fail(c, http.StatusUnauthorized, "invalid token")
		}
		if cl.Generation != s.generation.Load() {
			return fail(c, http.StatusUnauthorized, "token revoked")
		}
		userID, err := strconv.ParseInt(cl.Subject, 10, 64)
		if err != nil || !s.data.userExists(userID) {
			return fail(c, http.StatusUnauthorized, "invalid token")
		}

		c.Set(ctxUserID, userID)
		return next(c)
	}
}

// sameUser rejects requests for another user's /users/:userId resources.
func (s *Server) sameUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c, "userId")
		if err != nil {
			return fail(c, http.StatusBadRequest, err.Error())
		}
		if id != caller(c) {
			return fail(c, http.StatusForbidden, "forbidden")
		}
		return next(c)
	}
}

func caller(c echo.Context) int64 {
	id, _ := c.Get(ctxUserID).(int64)
	return id
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"message": msg})
}

// statusError is returned by data methods and mapped to a response by reply.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string { return e.msg }

func notFound(what string) error       { return &statusError{http.StatusNotFound, what + " not found"} }
func forbidden(msg string) error       { return &statusError{http.StatusForbidden, msg} }
func conflict(msg string) error        { return &statusError{http.StatusConflict, msg} }
func badRequest(msg string) error      { return &statusError{http.StatusBadRequest, msg} }
func unauthorizedErr(msg string) error { return &statusError{http.StatusUnauthorized, msg} }

// reply writes err as an error response, or calls ok when err is nil.
func reply(c echo.Context, err error, ok func() error) error {
	if err == nil {
		return ok()
	}
	var se *statusError
	if errors.As(err, &se) {
		return fail(c, se.status, se.msg)
	}
	c.Logger().Error("handler error: ", err)
	return fail(c, http.StatusInternalServerError, "internal error")
}

// bind decodes the request body into v.
func bind(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return badRequest("invalid request")
	}
	return nil
}

func timestamp(now time.Time) time.Time { return now.UTC().Truncate(time.Second) }
