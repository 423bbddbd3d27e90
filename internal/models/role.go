package models

// Role is the closed set of actor roles. Anything outside the set parses to
// RoleCustomer.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// ParseRole maps a stored role string to a Role. Unknown and empty values
// fall back to RoleCustomer, matching the default granted at registration.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAgent:
		return RoleAgent
	case RoleAdmin:
		return RoleAdmin
	default:
		return RoleCustomer
	}
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}
