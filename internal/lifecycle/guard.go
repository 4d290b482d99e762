package lifecycle

import "github.com/spec-kit/support-portal/internal/domain"

// CanAssign reports whether p may assign tickets.
func CanAssign(p domain.Principal) bool {
	return p.IsAdmin()
}

// CanChangeStatus reports whether p may move ticket through its lifecycle.
// Unassigned tickets are admin-only.
func CanChangeStatus(p domain.Principal, ticket *domain.Ticket) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.IsAssignedTo(p.ID)
	}
	return false
}

// CanView reports whether p may read ticket and its thread.
func CanView(p domain.Principal, ticket *domain.Ticket) bool {
	switch p.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleAgent:
		return ticket.IsAssignedTo(p.ID)
	case domain.RoleCustomer:
		return ticket.CustomerID == p.ID
	}
	return false
}
