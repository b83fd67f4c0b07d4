package server

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/existflow/prayerlist/internal/logger"
)

const resetSent = "if the email exists, a verification code will be sent"

func resetCodeString() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// handleForgotPassword issues a reset code. The response is the same whether
// or not the address is registered.
func (s *Server) handleForgotPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	if req.Email == "" {
		return fail(c, http.StatusBadRequest, "email required")
	}

	code, err := resetCodeString()
	if err != nil {
		return reply(c, err, nil)
	}
	if s.data.startReset(req.Email, code, s.now()) {
		s.log.Info("Password reset requested", logger.F("email", req.Email))
		s.sendResetCode(req.Email, code)
	}
	return message(c, http.StatusOK, resetSent)
}

func (s *Server) handleVerifyResetCode(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	token := uuid.NewString()
	err := s.data.verifyReset(req.Email, req.Code, token, s.now())
	return reply(c, err, func() error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Code verified", "token": token})
	})
}

func (s *Server) handleResetPassword(c echo.Context) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := bind(c, &req); err != nil {
		return reply(c, err, nil)
	}
	err := s.data.finishReset(req.Token, req.NewPassword, s.now())
	return reply(c, err, func() error {
		return message(c, http.StatusOK, "Password has been reset")
	})
}
