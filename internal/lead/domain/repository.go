package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// ListFilter selects leads strictly older than the cursor position.
type ListFilter struct {
	BeforeCreatedAt *time.Time
	BeforeID        snowflake.ID
	Limit           int
}

type Repository interface {
	// Insert returns ErrDuplicate when the email already registered the facility.
	Insert(ctx context.Context, lead *Lead) error
	// List returns leads newest first.
	List(ctx context.Context, filter ListFilter) ([]*Lead, error)
}
