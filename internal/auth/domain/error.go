package domain

import "errors"

var (
	ErrInvalidCredential     = errors.New("invalid credential")
	ErrVerifierMisconfigured = errors.New("token verifier not configured")
	ErrDependencyUnavailable = errors.New("user store unavailable")
	ErrUserNotFound          = errors.New("user not found")
)
