package models

// Requestor is the authenticated identity on whose behalf an operation runs.
// It is resolved once per request by the transport layer and passed
// explicitly into every service call that needs authorization.
type Requestor struct {
	ID   int64
	Role Role
}

// IsAdmin reports whether the requestor has the admin role.
func (r Requestor) IsAdmin() bool {
	return r.Role == RoleAdmin
}

// CanAccess reports whether the requestor may read or modify data owned by userID.
func (r Requestor) CanAccess(userID int64) bool {
	return r.ID == userID || r.IsAdmin()
}
