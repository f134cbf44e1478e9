package auth

import (
	"fmt"
	"strings"
)

// Role is a position in the campus role hierarchy.
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role, lowest first.
var Roles = []Role{RoleStudent, RoleStaff, RoleAdmin}

// Level returns the rank of the role in the total order student < staff < admin.
// Unknown roles rank 0 and therefore satisfy no requirement.
func (r Role) Level() int {
	switch r {
	case RoleStudent:
		return 1
	case RoleStaff:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r.Level() > 0
}

func (r Role) String() string {
	return string(r)
}

// ParseRole normalizes s and validates it against the known roles.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: must be one of student, staff, admin", s)
	}
	return r, nil
}

// Actor is the authenticated identity performing a request.
// It is passed explicitly into every core call; nothing in the core reads
// identity from ambient state.
type Actor struct {
	ID   string
	Role Role
}

const systemActorID = "system"

// System is the actor used by background processes such as the completion
// sweep and auto-confirmation.
func System() Actor {
	return Actor{ID: systemActorID, Role: RoleAdmin}
}

// IsSystem reports whether a is the background-process actor.
func (a Actor) IsSystem() bool {
	return a.ID == systemActorID
}

// HasRole holds iff the actor's level is at least the required level.
func HasRole(a Actor, required Role) bool {
	return a.Role.Valid() && a.Role.Level() >= required.Level()
}
