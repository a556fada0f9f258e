package models

// Role is the back-office role carried in actor tokens.
// Approval capability is fixed per role; there is no dynamic permission lookup.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleAgent   Role = "agent"
	RoleStaff   Role = "staff"
)

// Valid checks if the role is valid
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleAgent, RoleStaff:
		return true
	default:
		return false
	}
}

// CanApproveCampaigns reports whether the role may approve or reject campaigns.
// Campaigns created by such a role are approved on creation.
func (r Role) CanApproveCampaigns() bool {
	return r == RoleAdmin || r == RoleManager
}
