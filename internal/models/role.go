package models

import "fmt"

// Role is stored as text; compare against the constants, never raw strings.
type Role string

const (
	RoleTeacher    Role = "teacher"
	RoleSuperAdmin Role = "super_admin"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleTeacher, RoleSuperAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Label() string {
	switch r {
	case RoleTeacher:
		return "Teacher"
	case RoleSuperAdmin:
		return "Super admin"
	}
	return "Unknown"
}
