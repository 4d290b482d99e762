package domain

// Role is the single effective role of a principal.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
	RoleCustomer Role = "customer"
)

// Group names carried on user records.
const (
	GroupSystem = "group_system"
	GroupUser   = "group_user"
	GroupPortal = "group_portal"
)

// ResolveRole maps group membership to a role with Admin > Agent > Customer precedence.
func ResolveRole(groups []string) (Role, bool) {
	var agent, customer bool
	for _, g := range groups {
		switch g {
		case GroupSystem:
			return RoleAdmin, true
		case GroupUser:
			agent = true
		case GroupPortal:
			customer = true
		}
	}
	switch {
	case agent:
		return RoleAgent, true
	case customer:
		return RoleCustomer, true
	}
	return "", false
}

// GroupsForRole returns the membership that resolves to role.
func GroupsForRole(role Role) []string {
	switch role {
	case RoleAdmin:
		return []string{GroupSystem, GroupUser}
	case RoleAgent:
		return []string{GroupUser}
	case RoleCustomer:
		return []string{GroupPortal}
	}
	return nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCustomer:
		return true
	}
	return false
}
