package models

import "strings"

// Role is the closed set of staff roles the console knows about.
// The zero value is RoleUnauthenticated.
type Role int

const (
	RoleUnauthenticated Role = iota
	RoleUser
	RoleEngineer
	RoleAdmin
)

// ParseRole maps the backend's role string onto the enum. Anything unknown is unauthenticated.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin
	case "engineer":
		return RoleEngineer
	case "user":
		return RoleUser
	default:
		return RoleUnauthenticated
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleEngineer:
		return "engineer"
	case RoleUser:
		return "user"
	case RoleUnauthenticated:
		return "unauthenticated"
	default:
		return "unauthenticated"
	}
}

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	*r = ParseRole(string(b))
	return nil
}

// HomeFor is the landing path for each role.
func HomeFor(r Role) string {
	switch r {
	case RoleAdmin:
		return "/dashboard"
	case RoleEngineer:
		return "/orders"
	case RoleUser:
		return "/chat"
	case RoleUnauthenticated:
		return "/login"
	default:
		return "/login"
	}
}
