package models

import "time"

// Project represents a project in a workspace. Only the fields this
// service consumes are modeled; projects are owned by the wider
// platform and read here through the lookup store.
type Project struct {
	ID                    string    `json:"id"`
	WorkspaceSlug         string    `json:"workspace"`
	Identifier            string    `json:"identifier"`
	Name                  string    `json:"name"`
	IsTimeTrackingEnabled bool      `json:"is_time_tracking_enabled"`
	CreatedAt             time.Time `json:"created_at"`
}

// Project member roles.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleGuest  = "guest"
)

// ProjectMember represents a project membership with a role.
type ProjectMember struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"` // admin, member, guest
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}
