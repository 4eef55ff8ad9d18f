package session

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to the error taxonomy so callers can branch without
// string matching.
const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenInvalid       = "TOKEN_EXPIRED_OR_INVALID"
	TextCodeValidationFailure  = "VALIDATION_FAILURE"
	TextCodeNetworkFailure     = "NETWORK_FAILURE"
	TextCodeServerFailure      = "SERVER_FAILURE"
	TextCodeNoSession          = "NO_ACTIVE_SESSION"
)

// ErrInvalidCredentials is returned when the identifier/secret pair is rejected.
var ErrInvalidCredentials = goerrors.New("invalid identifier or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials)

// ErrTokenInvalid is returned when the server rejects the bearer token.
var ErrTokenInvalid = goerrors.New("session token is expired or invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid)

// ErrNoSession is returned when a protected operation runs without a stored token.
var ErrNoSession = goerrors.New("no active session", goerrors.CategoryAuth).
	WithTextCode(TextCodeNoSession)

// IsInvalidCredentials reports whether err carries the invalid-credentials code.
func IsInvalidCredentials(err error) bool {
	return hasTextCode(err, TextCodeInvalidCredentials)
}

// IsTokenInvalid reports whether err signals an expired or invalid token.
func IsTokenInvalid(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

// IsValidationFailure reports whether err is a client-side or server-side
// payload validation failure.
func IsValidationFailure(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryValidation
	}
	return false
}

// IsNetworkFailure reports whether err means the identity service was unreachable.
func IsNetworkFailure(err error) bool {
	return hasTextCode(err, TextCodeNetworkFailure)
}

// IsServerFailure reports whether err is a 5xx-class failure.
func IsServerFailure(err error) bool {
	return hasTextCode(err, TextCodeServerFailure)
}

func hasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.TextCode == code
	}
	return false
}

// userMessage picks the human-readable message surfaced in notifications,
// preferring what the server sent.
func userMessage(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Message != "" {
		return rich.Message
	}
	return "Something went wrong. Please try again."
}

func validationFailure(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, msg).
		WithTextCode(TextCodeValidationFailure).
		WithCode(goerrors.CodeBadRequest)
}
