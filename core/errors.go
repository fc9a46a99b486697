package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	AuthErrorBadInput        = "VMAUTH_BAD_INPUT"
	AuthErrorContextNotFound = "VMAUTH_CONTEXT_NOT_FOUND"
	AuthErrorMailboxNotFound = "VMAUTH_MAILBOX_NOT_FOUND"
	AuthErrorInvalidPassword = "VMAUTH_INVALID_PASSWORD"
	AuthErrorChannelHungup   = "VMAUTH_CHANNEL_HUNGUP"
	AuthErrorSessionNotFound = "VMAUTH_SESSION_NOT_FOUND"
	AuthErrorSessionComplete = "VMAUTH_SESSION_COMPLETE"
	AuthErrorInternal        = "VMAUTH_INTERNAL_ERROR"
)

// ErrContextNotFound reports that a domain did not resolve to a voicemail
// context. The session cannot proceed once this is raised from init.
func ErrContextNotFound(domain string) *goerrors.Error {
	return newAuthError(
		"core: no voicemail context for domain "+strings.TrimSpace(domain),
		goerrors.CategoryNotFound,
		AuthErrorContextNotFound,
	)
}

// ErrMailboxNotFound reports that a mailbox number did not resolve within the
// session's context. The session stays open awaiting a corrected number.
func ErrMailboxNotFound(number string) *goerrors.Error {
	message := "core: mailbox not found"
	if trimmed := strings.TrimSpace(number); trimmed != "" {
		message = "core: mailbox " + trimmed + " not found"
	}
	return newAuthError(message, goerrors.CategoryNotFound, AuthErrorMailboxNotFound)
}

// ErrInvalidPassword reports a password mismatch. Retryable: the session
// remains in the authenticating state.
func ErrInvalidPassword() *goerrors.Error {
	return newAuthError("core: invalid mailbox password", goerrors.CategoryAuth, AuthErrorInvalidPassword)
}

// ErrChannelHungup reports that the call ended before authentication
// concluded. Always fatal for the session.
func ErrChannelHungup() *goerrors.Error {
	return newAuthError("core: channel hung up", goerrors.CategoryOperation, AuthErrorChannelHungup)
}

func ErrSessionNotFound(id string) *goerrors.Error {
	return newAuthError(
		"core: session "+strings.TrimSpace(id)+" not found",
		goerrors.CategoryNotFound,
		AuthErrorSessionNotFound,
	)
}

// ErrSessionComplete reports an operation invoked on a session that already
// reached its terminal state without the call hanging up.
func ErrSessionComplete() *goerrors.Error {
	return newAuthError("core: session already complete", goerrors.CategoryOperation, AuthErrorSessionComplete)
}

func newAuthError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureAuthErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// authErrorMapper normalizes arbitrary collaborator failures into the
// package error envelope. Rich errors pass through with their envelope
// completed; everything else maps by category heuristics.
func authErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureAuthErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "context") && strings.Contains(msg, "not found"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorContextNotFound)
	case strings.Contains(msg, "mailbox") && strings.Contains(msg, "not found"):
		return newAuthError(err.Error(), goerrors.CategoryNotFound, AuthErrorMailboxNotFound)
	case strings.Contains(msg, "hung up"), strings.Contains(msg, "hangup"):
		return newAuthError(err.Error(), goerrors.CategoryOperation, AuthErrorChannelHungup)
	case strings.Contains(msg, "password"):
		return newAuthError(err.Error(), goerrors.CategoryAuth, AuthErrorInvalidPassword)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"):
		return newAuthError(err.Error(), goerrors.CategoryBadInput, AuthErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureAuthErrorEnvelope(mapped)
}

func ensureAuthErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = authHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultAuthTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultAuthTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return AuthErrorBadInput
	case goerrors.CategoryNotFound:
		return AuthErrorMailboxNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return AuthErrorInvalidPassword
	case goerrors.CategoryOperation:
		return AuthErrorChannelHungup
	default:
		return AuthErrorInternal
	}
}

func authHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return http.StatusUnauthorized
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryOperation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HasTextCode reports whether err carries the given envelope text code.
func HasTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == textCode
}

// IsNotFound reports whether err is a CategoryNotFound rich error. Stores use
// this to distinguish an absent record from a backend failure.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryNotFound
}

func IsContextNotFound(err error) bool { return HasTextCode(err, AuthErrorContextNotFound) }

func IsMailboxNotFound(err error) bool { return HasTextCode(err, AuthErrorMailboxNotFound) }

func IsInvalidPassword(err error) bool { return HasTextCode(err, AuthErrorInvalidPassword) }

func IsChannelHungup(err error) bool { return HasTextCode(err, AuthErrorChannelHungup) }

func IsSessionComplete(err error) bool { return HasTextCode(err, AuthErrorSessionComplete) }
