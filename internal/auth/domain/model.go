// Package domain contains the identity and role types shared by the guards.
package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleNone          Role = ""
	RolePlatformAdmin Role = "platform_admin"
	RoleCenterAdmin   Role = "center_admin"
	RolePlayer        Role = "player"
)

// NormalizeRole trims surrounding whitespace. Case is preserved because
// legacy roles such as clubAdmin are matched verbatim.
func NormalizeRole(raw string) Role {
	return Role(strings.TrimSpace(raw))
}

// Scope selects which role sources the resolver may consult.
type Scope string

const (
	ScopePlatform Scope = "platform"
	ScopeClub     Scope = "club"
)

// Actor is a verified caller. Role is filled in by the resolver.
type Actor struct {
	SubjectID string `json:"subjectId"`
	Email     string `json:"email,omitempty"`
	Role      Role   `json:"role,omitempty"`
	ClaimRole Role   `json:"-"`
}

// UserRecord mirrors users/{subjectId}.
type UserRecord struct {
	SubjectID         string     `json:"subjectId" firestore:"-"`
	Email             string     `json:"email,omitempty" firestore:"email,omitempty"`
	Role              Role       `json:"role,omitempty" firestore:"role,omitempty"`
	LegacyRole        Role       `json:"legacyRole,omitempty" firestore:"legacyRole,omitempty"`
	ClaimsRole        Role       `json:"claimsRole,omitempty" firestore:"claimsRole,omitempty"`
	ClaimsRefreshedAt *time.Time `json:"claimsRefreshedAt,omitempty" firestore:"claimsRefreshedAt,omitempty"`
	UpdatedAt         time.Time  `json:"updatedAt" firestore:"updatedAt"`
}
