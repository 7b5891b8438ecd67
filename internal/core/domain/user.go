package domain

import "time"

// Role is the normalized role tag of a session.
type Role string

const (
	RoleAttendee     Role = "attendee"
	RoleModerator    Role = "moderator"
	RoleUnrecognized Role = "unrecognized"
)

// ParseRole maps the server's "estado" value to a Role.
func ParseRole(estado string) Role {
	switch estado {
	case "usuario", string(RoleAttendee):
		return RoleAttendee
	case "moderador", string(RoleModerator):
		return RoleModerator
	default:
		return RoleUnrecognized
	}
}

// UserSnapshot is the authenticated user's server-known state.
type UserSnapshot struct {
	ID           string           `json:"id"`
	DisplayName  string           `json:"display_name"`
	Role         Role             `json:"role"`
	Attendance   AttendanceRecord `json:"attendance"`
	Token        string           `json:"-"`
	Email        string           `json:"email,omitempty"`
	University   string           `json:"university,omitempty"`
	ImportAmount string           `json:"import_amount,omitempty"`
	Category     string           `json:"category,omitempty"`
	LoginAt      time.Time        `json:"login_at,omitempty"`
}

// Authenticated reports whether the snapshot carries both a token and a role,
// the same test the route guards use.
func (u UserSnapshot) Authenticated() bool {
	return u.Token != "" && u.Role != ""
}
