package authz

import "fmt"

// Role is the closed set of user roles. Authors create and adjudicate tasks,
// solvers execute them.
type Role string

const (
	RoleAuthor Role = "AUTHOR"
	RoleSolver Role = "SOLVER"
)

func (r Role) IsValid() bool {
	return r == RoleAuthor || r == RoleSolver
}

// ParseRole normalizes a wire-level role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAuthor:
		return RoleAuthor, nil
	case RoleSolver:
		return RoleSolver, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}
