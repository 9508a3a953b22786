package types

import "strings"

// Role classifies what an actor may do. Authentication and role assignment
// happen outside the engine; actions receive the already-resolved actor.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleDBA     Role = "dba"
	RoleAdmin   Role = "admin"
)

// Actor identifies the caller of an engine operation.
type Actor struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	Department string `json:"department,omitempty"`
}

// IsDBA reports whether the actor carries the DBA role. Composite roles such
// as "dba,manager" count.
func (a *Actor) IsDBA() bool {
	return a.Role == RoleDBA || strings.Contains(string(a.Role), string(RoleDBA))
}

// IsAdmin reports whether the actor is an administrator.
func (a *Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
