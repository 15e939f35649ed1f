package kernel

// ============================================================================
// Roles
// ============================================================================

// Role is the coarse permission tier attached to every account.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// IsValid reports whether the role is one of the known tiers.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ============================================================================
// Principal — the resolved, authenticated identity attached to a request
// ============================================================================

// Principal is injected into the request context by the auth middleware.
// Guards evaluate it; they never reach back into credential state.
type Principal struct {
	UserID     UserID `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	IsApproved bool   `json:"is_approved"`
	IsActive   bool   `json:"is_active"`
}

// IsValid verifies the principal identifies a concrete account.
func (p *Principal) IsValid() bool {
	return p != nil && !p.UserID.IsEmpty()
}

// IsAdmin reports whether the principal carries the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// HasRole reports whether the principal's role is in the allowed set.
func (p *Principal) HasRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// CanInstruct reports whether instructor privileges are effective: the
// instructor role alone is not enough until an admin has approved the
// account. Admins always can.
func (p *Principal) CanInstruct() bool {
	if p == nil {
		return false
	}
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role == RoleInstructor && p.IsApproved
}

// ============================================================================
// Context Keys
// ============================================================================

type ContextKey string

const (
	// PrincipalContextKey stores the resolved *Principal for a request
	PrincipalContextKey ContextKey = "principal"

	// SessionContextKey stores the SessionID bound to the request transport
	SessionContextKey ContextKey = "session_id"

	// RequestIDKey stores the request correlation ID
	RequestIDKey ContextKey = "request_id"
)
