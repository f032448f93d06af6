package authorization

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	authdomain "github.com/smallbiznis/clubos/internal/auth/domain"
	"github.com/smallbiznis/clubos/internal/config"
	obscontext "github.com/smallbiznis/clubos/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Verifier  authdomain.Verifier
	Resolver  authdomain.RoleResolver
	Enforcer  *casbin.SyncedEnforcer
	Allowlist *config.AllowlistHolder
}

// Guard turns a bearer credential into an admission decision for one trust tier.
type Guard struct {
	log        *zap.Logger
	verifier   authdomain.Verifier
	resolver   authdomain.RoleResolver
	enforcer   *casbin.SyncedEnforcer
	allowlist  *config.AllowlistHolder
	adminToken string
}

func NewGuard(p Params) *Guard {
	g := &Guard{
		log:        p.Log.Named("authorization.guard"),
		verifier:   p.Verifier,
		resolver:   p.Resolver,
		enforcer:   p.Enforcer,
		allowlist:  p.Allowlist,
		adminToken: strings.TrimSpace(p.Config.Access.AdminToken),
	}
	if g.adminToken == "" {
		g.log.Warn("ADMIN_TOKEN not set, admin token endpoints are open to every caller")
	}
	return g
}

// RequirePlatformAdmin admits only platform_admin callers.
func (g *Guard) RequirePlatformAdmin(ctx context.Context, token string) (*authdomain.Actor, error) {
	if g.allowlist.Get().Len() == 0 {
		g.log.Error("privileged email allowlist is empty")
		return nil, ErrGuardMisconfigured
	}
	return g.admit(ctx, token, authdomain.ScopePlatform, ObjectBackoffice)
}

// RequireClubRole admits center_admin and its legacy aliases.
func (g *Guard) RequireClubRole(ctx context.Context, token string) (*authdomain.Actor, error) {
	return g.admit(ctx, token, authdomain.ScopeClub, ObjectClubOS)
}

// RequireAdminToken compares the presented shared secret in constant time.
// With no secret configured every request is allowed.
func (g *Guard) RequireAdminToken(presented string) bool {
	return AdminTokenMatches(presented, g.adminToken)
}

func AdminTokenMatches(presented, configured string) bool {
	if configured == "" {
		return true
	}
	presented = strings.TrimSpace(presented)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(configured)) == 1
}

func (g *Guard) admit(ctx context.Context, token string, scope authdomain.Scope, object string) (*authdomain.Actor, error) {
	actor, err := g.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, authdomain.ErrVerifierMisconfigured) {
			g.log.Error("token verifier not configured")
			return nil, fmt.Errorf("%w: %w", ErrGuardMisconfigured, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	role, err := g.resolver.Resolve(ctx, *actor, scope)
	if err != nil {
		return nil, err
	}
	actor.Role = role

	allowed, err := g.enforcer.Enforce(string(role), object, ActionAccess)
	if err != nil {
		return nil, err
	}
	if !allowed {
		g.log.Info("access denied",
			zap.String("subject_id", actor.SubjectID),
			zap.String("role", string(role)),
			zap.String("object", object),
		)
		return nil, ErrForbidden
	}
	return actor, nil
}

// WithActor records the admitted actor on ctx for request logging.
func WithActor(ctx context.Context, actor *authdomain.Actor) context.Context {
	if actor == nil {
		return ctx
	}
	return obscontext.WithActor(ctx, string(actor.Role), actor.SubjectID)
}
