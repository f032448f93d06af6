package auth

import (
	"github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/auth/role"
	"github.com/smallbiznis/clubos/internal/auth/session"
	"github.com/smallbiznis/clubos/internal/auth/token"
	"go.uber.org/fx"
)

// Module provides the verifier and resolver; the user repository comes from the storage module.
var Module = fx.Module("auth.service",
	fx.Provide(
		fx.Annotate(token.NewVerifier, fx.As(new(domain.Verifier))),
		fx.Annotate(role.NewService, fx.As(new(domain.RoleResolver))),
	),
	session.Module,
)
