package models

// User holds the minimal user fields reports and exports need.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Label returns the user's display name, falling back to email.
func (u *User) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Actor is the pre-validated caller of a request. Authentication and
// role assignment happen upstream; this service only consumes the
// result.
type Actor struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"` // admin, member, guest
}

// HasRole reports whether the actor holds one of the given roles.
func (a *Actor) HasRole(roles ...string) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}
