package entity

// Caller is the already-authenticated identity on whose behalf an operation runs.
// It is produced at the transport boundary and passed explicitly into every usecase call.
type Caller struct {
	UserID  string
	Role    string
	StaffID string
}

func (c Caller) Can(perm Permission) bool {
	return RoleHasPermission(c.Role, perm)
}

// ScopedToOwnPatients reports whether list and read operations must be
// restricted to patients assigned to the caller.
func (c Caller) ScopedToOwnPatients() bool {
	return c.Role == RoleDoctor
}

// UserIDPtr returns nil for anonymous callers, for nullable audit columns.
func (c Caller) UserIDPtr() *string {
	if c.UserID == "" {
		return nil
	}
	id := c.UserID
	return &id
}
