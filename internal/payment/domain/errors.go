package domain

import "errors"

var (
	// ErrEventIgnored marks a recognized delivery that maps to no transition.
	ErrEventIgnored         = errors.New("payment event ignored")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrWebhookSecretMissing = errors.New("webhook secret not configured")
	ErrUnrecognizedPayload  = errors.New("unrecognized webhook payload")
	ErrProviderNotFound     = errors.New("payment provider not found")
	ErrInvalidConfig        = errors.New("invalid payment provider config")
	ErrInvalidEvent         = errors.New("invalid payment event")
	ErrReconcileConflict    = errors.New("booking kept changing during reconciliation")
)
