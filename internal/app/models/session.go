package models

// Session is the authenticated staff member as returned by the backend login call.
// A request without a session carries the zero Session, whose Role is RoleUnauthenticated.
type Session struct {
	Token       string   `json:"token"`
	ID          int64    `json:"id"`
	Name        string   `json:"name,omitempty"`
	Email       string   `json:"email,omitempty"`
	Role        Role     `json:"role"`
	Permissions []string `json:"permissions,omitempty"`
}

// Authenticated reports whether the session carries a token and a known role.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.Role != RoleUnauthenticated
}

// HasPermission reports whether the backend granted the named permission.
func (s Session) HasPermission(name string) bool {
	for _, p := range s.Permissions {
		if p == name {
			return true
		}
	}
	return false
}

// LoginRequest is the payload posted to the backend's auth/login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
