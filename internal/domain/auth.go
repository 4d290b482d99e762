package domain

// Principal is the authenticated caller, resolved once per request.
type Principal struct {
	ID     string
	Name   string
	Email  string
	Role   Role
	Active bool
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

func (p Principal) IsAgent() bool { return p.Role == RoleAgent }

func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }
