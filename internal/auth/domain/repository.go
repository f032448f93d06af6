package domain

import (
	"context"
	"time"
)

// UserRepository reads and writes the role records behind the resolver.
type UserRepository interface {
	// GetUser returns (nil, nil) when no record exists.
	GetUser(ctx context.Context, subjectID string) (*UserRecord, error)
	CenterAdminExists(ctx context.Context, subjectID string) (bool, error)
	UpsertRole(ctx context.Context, subjectID, email string, role Role, at time.Time) error
	// RequestClaimsRefresh marks the record so the issuer embeds role on the next token.
	RequestClaimsRefresh(ctx context.Context, subjectID string, role Role, at time.Time) error
}
