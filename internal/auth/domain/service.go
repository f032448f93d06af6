package domain

import "context"

type Verifier interface {
	Verify(ctx context.Context, token string) (*Actor, error)
}

type RoleResolver interface {
	Resolve(ctx context.Context, actor Actor, scope Scope) (Role, error)
}
