package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
)

// Kind classifies every failure a resource call can produce.
type Kind string

const (
	KindUnauthorized       Kind = "Unauthorized"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindInvalidInput       Kind = "InvalidInput"
	KindServerError        Kind = "ServerError"
	KindTimeout            Kind = "TimeoutError"
	KindConflict           Kind = "Conflict"
	KindInvalidInviteCode  Kind = "InvalidInviteCode"
	KindForbidden          Kind = "Forbidden"
	KindUnknown            Kind = "UnknownError"
)

const (
	msgUnauthorized       = "Unauthorized access. Please log in."
	msgInvalidCredentials = "Invalid username or password"
	msgServerError        = "Server error occurred. Please try again later."
	msgTimeout            = "Request timed out. Please try again."
	msgUnknown            = "An unknown error occurred."
	msgInvalidInput       = "Invalid input"
	msgForbidden          = "You do not have permission to perform this action."
	msgConflict           = "The request conflicts with existing data."
	msgInvalidInviteCode  = "Invalid or expired invite code"
	msgMalformed          = "Received a malformed response from the server."
)

// Error is the only error type returned by Client methods.
type Error struct {
	Kind    Kind
	Message string
	Status  int   // HTTP status when the server answered, 0 otherwise
	Err     error // underlying transport or decode error, if any
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches errors of the same Kind, so errors.Is(err, ErrUnauthorized) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Status == 0
}

// Sentinels for errors.Is comparisons.
var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
	ErrServer             = &Error{Kind: KindServerError}
	ErrTimeout            = &Error{Kind: KindTimeout}
	ErrConflict           = &Error{Kind: KindConflict}
	ErrInvalidInviteCode  = &Error{Kind: KindInvalidInviteCode}
	ErrForbidden          = &Error{Kind: KindForbidden}
	ErrUnknown            = &Error{Kind: KindUnknown}
)

// KindOf reports the Kind of err. Foreign errors are KindUnknown, nil is "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return msgUnknown
}

func unauthorized() *Error {
	return &Error{Kind: KindUnauthorized, Message: msgUnauthorized, Status: http.StatusUnauthorized}
}

func invalidInput(msg string) *Error {
	return &Error{Kind: KindInvalidInput, Message: msg}
}

// override replaces the default mapping for one status code.
type override struct {
	kind    Kind
	message string // used when the server sent no error text
	fixed   bool   // ignore server text even when present
}

// statusError maps a non-2xx response to an *Error.
func statusError(status int, body []byte, overrides map[int]override) *Error {
	serverMsg := serverMessage(body)
	if o, ok := overrides[status]; ok {
		msg := o.message
		if serverMsg != "" && !o.fixed {
			msg = serverMsg
		}
		return &Error{Kind: o.kind, Message: msg, Status: status}
	}

	switch {
	case status == http.StatusBadRequest:
		return &Error{Kind: KindInvalidInput, Message: orDefault(serverMsg, msgInvalidInput), Status: status}
	case status == http.StatusUnauthorized:
		return &Error{Kind: KindUnauthorized, Message: msgUnauthorized, Status: status}
	case status == http.StatusForbidden:
		return &Error{Kind: KindForbidden, Message: orDefault(serverMsg, msgForbidden), Status: status}
	case status == http.StatusConflict:
		return &Error{Kind: KindConflict, Message: orDefault(serverMsg, msgConflict), Status: status}
	case status >= 500:
		return &Error{Kind: KindServerError, Message: msgServerError, Status: status}
	default:
		return &Error{Kind: KindUnknown, Message: orDefault(serverMsg, msgUnknown), Status: status}
	}
}

// transportError classifies a failure that produced no HTTP response.
func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: msgTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: msgTimeout, Err: err}
	}
	return &Error{Kind: KindUnknown, Message: msgUnknown, Err: err}
}

func malformed(err error) *Error {
	return &Error{Kind: KindUnknown, Message: msgMalformed, Err: err}
}

// serverMessage pulls {"error": "..."} or {"message": "..."} out of an error body.
func serverMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	if s := strings.TrimSpace(payload.Error); s != "" {
		return s
	}
	return strings.TrimSpace(payload.Message)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
