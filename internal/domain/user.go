package domain

import "time"

// User is a portal account. Its role is derived from Groups.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Groups       []string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Role resolves the effective role of the user.
func (u *User) Role() (Role, bool) {
	return ResolveRole(u.Groups)
}

// Principal builds the request principal for the user.
func (u *User) Principal() (Principal, bool) {
	role, ok := u.Role()
	if !ok {
		return Principal{}, false
	}
	return Principal{ID: u.ID, Name: u.Name, Email: u.Email, Role: role, Active: u.Active}, true
}

// CanWorkTickets reports whether the user may be assigned tickets.
func (u *User) CanWorkTickets() bool {
	role, ok := u.Role()
	return ok && u.Active && (role == RoleAgent || role == RoleAdmin)
}
