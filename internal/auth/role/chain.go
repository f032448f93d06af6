package role

import "github.com/smallbiznis/clubos/internal/auth/domain"

// Source names the chain step that produced a role.
type Source string

const (
	SourceAllowlist   Source = "allowlist"
	SourceUserRole    Source = "user_role"
	SourceClaim       Source = "claim"
	SourceLegacyRole  Source = "legacy_role"
	SourceCenterAdmin Source = "center_admin"
	SourceNone        Source = "none"
)

// Inputs are the already-fetched facts the chain decides over.
type Inputs struct {
	Allowlisted bool
	User        *domain.UserRecord
	Scope       domain.Scope
	ClaimRole   domain.Role
	CenterAdmin bool
}

// Resolve applies the role chain; the first matching step wins.
func Resolve(in Inputs) (domain.Role, Source) {
	if in.Allowlisted {
		return domain.RolePlatformAdmin, SourceAllowlist
	}
	if in.User != nil && in.User.Role == domain.RolePlatformAdmin {
		return domain.RolePlatformAdmin, SourceUserRole
	}
	if in.Scope == domain.ScopeClub && in.ClaimRole != domain.RoleNone {
		return in.ClaimRole, SourceClaim
	}
	if in.User != nil && in.User.LegacyRole != domain.RoleNone {
		return in.User.LegacyRole, SourceLegacyRole
	}
	if in.CenterAdmin {
		return domain.RoleCenterAdmin, SourceCenterAdmin
	}
	return domain.RoleNone, SourceNone
}
