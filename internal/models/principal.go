package models

// Principal is the authenticated identity attached to a single request.
// Role is nil when the credentials carried no role at all.
type Principal struct {
	UserID string    `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Role   *UserRole `json:"role"`
}

// NewPrincipal builds a Principal with the given role set.
func NewPrincipal(userID, email string, role UserRole) *Principal {
	return &Principal{UserID: userID, Email: email, Role: &role}
}
