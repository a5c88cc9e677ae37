package domain

// Role is the caller role supplied by the authentication layer.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
	RoleParent  Role = "parent"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleParent:
		return true
	}
	return false
}

// Privileged reports whether the role may see answer keys and other students' attempts.
func (r Role) Privileged() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   Role
	// Children lists the student ids a parent may read analytics for.
	Children []string
}

// IsAdmin reports whether the caller has admin capability.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// CanMutate reports whether the caller owns the resource or is an admin.
func (id Identity) CanMutate(ownerID string) bool {
	return id.IsAdmin() || (id.Role == RoleTeacher && id.UserID == ownerID)
}

// HasChild reports whether studentID is linked to the (parent) caller.
func (id Identity) HasChild(studentID string) bool {
	for _, c := range id.Children {
		if c == studentID {
			return true
		}
	}
	return false
}
