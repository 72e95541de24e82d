package domain

import (
	"strings"

	dErrors "commission/pkg/domain-errors"
)

// Role is the portal role of an authenticated actor.
type Role string

const (
	RoleSuper Role = "SUPER"
	RoleAdmin Role = "ADMIN"
	RoleMedia Role = "MEDIA"
	RoleAudit Role = "AUDIT"
	RoleLGA   Role = "LGA"
)

var validRoles = map[Role]bool{
	RoleSuper: true,
	RoleAdmin: true,
	RoleMedia: true,
	RoleAudit: true,
	RoleLGA:   true,
}

// ParseRole constructs a Role from external input (token claims, config).
// Matching is case-insensitive.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid role: "+s)
	}
	return r, nil
}

// Actor is the identity performing an action. It is supplied by the
// authentication layer and copied verbatim into proposals, articles and
// activity entries.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Validate enforces that the actor carries an identity.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	return nil
}

// HasRole reports whether the actor holds one of roles.
func (a Actor) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
