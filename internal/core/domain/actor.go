package domain

// Actor represents the authenticated principal performing a request
type Actor struct {
	ID      uint
	Email   string
	IsStaff bool
}

// CanAccess reports whether the actor may read or act on a record owned
// by ownerID. Staff may access everything; everyone else only their own
// records. Callers surface a failed check as a 404 so that record
// existence is not leaked to other users.
func (a Actor) CanAccess(ownerID uint) bool {
	return a.IsStaff || a.ID == ownerID
}

// ScopeUserID resolves the user filter for list endpoints. Staff may ask
// for any user's rows (or all of them); other actors are always pinned
// to their own ID regardless of what they requested.
func (a Actor) ScopeUserID(requested *uint) *uint {
	if a.IsStaff {
		return requested
	}
	id := a.ID
	return &id
}
