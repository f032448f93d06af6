package authorization

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrGuardMisconfigured = errors.New("access guard misconfigured")
)
