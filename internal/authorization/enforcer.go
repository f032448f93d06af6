package authorization

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	authdomain "github.com/smallbiznis/clubos/internal/auth/domain"
)

//go:embed model.conf
var modelText string

const (
	ObjectBackoffice = "backoffice"
	ObjectClubOS     = "clubos"

	ActionAccess = "access"
)

// legacyClubRoles are role names from the older taxonomy that still mean center_admin.
var legacyClubRoles = []string{"club_admin", "clubAdmin", "center_owner", "admin_club"}

// NewEnforcer builds an in-memory enforcer seeded with the tier policies.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{string(authdomain.RolePlatformAdmin), ObjectBackoffice, ActionAccess},
		{string(authdomain.RoleCenterAdmin), ObjectClubOS, ActionAccess},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	for _, legacy := range legacyClubRoles {
		if _, err := enforcer.AddGroupingPolicy(legacy, string(authdomain.RoleCenterAdmin)); err != nil {
			return err
		}
	}
	return nil
}
