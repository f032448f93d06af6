package domain

import "errors"

var (
	ErrNotFound         = errors.New("booking not found")
	ErrInvalidID        = errors.New("invalid booking id")
	ErrConcurrentUpdate = errors.New("booking changed concurrently")
)
