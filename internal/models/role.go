package models

// UserRole is the single role string carried by a user.
type UserRole string

const (
	RoleAdmin UserRole = "admin"
	RoleUser  UserRole = "user"
)

// IsValidRole reports whether role is one the service can assign.
func IsValidRole(role UserRole) bool {
	switch role {
	case RoleAdmin, RoleUser:
		return true
	default:
		return false
	}
}
