package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/existflow/prayerlist/internal/model"
)

// LoginResponse is returned by POST /login.
type LoginResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    *model.User `json:"user"`
}

// SignupRequest is the body of POST /signup.
type SignupRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// SignupResponse is returned by POST /signup.
type SignupResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// ProfileUpdate carries the fields PATCH /users/{id} may change.
type ProfileUpdate struct {
	Username    *string `json:"username,omitempty"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Login authenticates with username and password. It bypasses the refresh
// interceptor: a 401 here means the credentials are wrong.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	var res LoginResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/login",
		body:   map[string]string{"username": username, "password": password},
		public: true,
		overrides: map[int]override{
			http.StatusUnauthorized: {kind: KindInvalidCredentials, message: msgInvalidCredentials, fixed: true},
		},
	}, &res)
	if err != nil {
		return nil, err
	}
	if res.Token == "" || res.User == nil {
		return nil, malformed(fmt.Errorf("login response missing token or user"))
	}
	return &res, nil
}

func (c *Client) loginForRefresh(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	return c.Login(ctx, creds.Username, creds.Password)
}

// ValidateSignup applies the client-side signup checks.
func ValidateSignup(req SignupRequest) error {
	if req.Email == "" || req.Password == "" || req.FirstName == "" {
		return invalidInput("Email, password, and first name are required")
	}
	if len(req.Password) < 6 {
		return invalidInput("Password must be at least 6 characters long")
	}
	if !emailPattern.MatchString(req.Email) {
		return invalidInput("Please enter a valid email address")
	}
	if req.PhoneNumber != "" && countDigits(req.PhoneNumber) != 10 {
		return invalidInput("Please enter a valid phone number")
	}
	return nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Signup creates an account. It does not log in.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error) {
	if err := ValidateSignup(req); err != nil {
		return nil, err
	}
	var res SignupResponse
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/signup",
		body:   req,
		public: true,
	}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CheckUsername reports whether username is still free.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	if strings.TrimSpace(username) == "" {
		return false, invalidInput("Username is required")
	}
	var res struct {
		Username  string `json:"username"`
		Available bool   `json:"available"`
	}
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/check-username",
		query:  url.Values{"username": {username}},
		public: true,
	}, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}

// ForgotPassword asks the server to email a reset code.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	if !emailPattern.MatchString(email) {
		return "", invalidInput("Please enter a valid email address")
	}
	var res messageResponse
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/forgot-password",
		body:   map[string]string{"email": email},
		public: true,
	}, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// VerifyResetCode exchanges an emailed code for a short-lived reset token.
func (c *Client) VerifyResetCode(ctx context.Context, email, code string) (string, error) {
	var res struct {
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/verify-reset-code",
		body:   map[string]string{"email": email, "code": code},
		public: true,
		overrides: map[int]override{
			http.StatusUnauthorized: {kind: KindInvalidInput, message: "Invalid or expired verification code"},
		},
	}, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

// ResetPassword sets a new password using a token from VerifyResetCode.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/reset-password",
		body:   map[string]string{"token": resetToken, "newPassword": newPassword},
		public: true,
		overrides: map[int]override{
			http.StatusUnauthorized: {kind: KindInvalidInput, message: "Invalid or expired token. Please start over.", fixed: true},
			http.StatusBadRequest:   {kind: KindInvalidInput, message: "Password must be at least 6 characters"},
		},
	}, nil)
}

// UpdateProfile patches the user's profile and returns the stored record.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*model.User, error) {
	var res struct {
		Message string      `json:"message"`
		User    *model.User `json:"user"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d", userID),
		body:   update,
	}, &res); err != nil {
		return nil, err
	}
	if res.User == nil {
		return nil, malformed(fmt.Errorf("profile response missing user"))
	}
	return res.User, nil
}

// ChangePassword replaces the password after checking the old one.
func (c *Client) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return invalidInput("Password must be at least 6 characters long")
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   fmt.Sprintf("/users/%d/password", userID),
		body:   map[string]string{"oldPassword": oldPassword, "newPassword": newPassword},
	}, nil)
}

// DeleteAccount removes the user's account.
func (c *Client) DeleteAccount(ctx context.Context, userID int64) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   fmt.Sprintf("/users/%d/account", userID),
	}, nil)
}

// RegisterPushToken records a device push token for the logged-in user.
func (c *Client) RegisterPushToken(ctx context.Context, pushToken, platform string) (bool, error) {
	if pushToken == "" {
		return false, invalidInput("Push token is required")
	}
	var res struct {
		Success *bool  `json:"success"`
		Message string `json:"message"`
	}
	if err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/users/push-token",
		body:   map[string]string{"pushToken": pushToken, "platform": platform},
	}, &res); err != nil {
		return false, err
	}
	return res.Success == nil || *res.Success, nil
}
