// internal/domain/workflow.go
package domain

// transitionTable lists, per source status, the legal targets and the roles allowed to request them.
// Owners are additionally checked against the application's OwnerID by the workflow service.
var transitionTable = map[ApplicationStatus]map[ApplicationStatus][]Role{
	ApplicationStatusDraft: {
		ApplicationStatusPending:   {RoleOwner},
		ApplicationStatusCancelled: {RoleOwner, RoleAdmin, RoleSystem},
	},
	ApplicationStatusPending: {
		ApplicationStatusUnderReview: {RoleAgency, RoleAdmin},
		ApplicationStatusApproved:    {RoleAgency, RoleAdmin, RoleSystem},
		ApplicationStatusRejected:    {RoleAgency, RoleAdmin},
		ApplicationStatusCancelled:   {RoleOwner, RoleAgency, RoleAdmin, RoleSystem},
	},
	ApplicationStatusUnderReview: {
		ApplicationStatusApproved:  {RoleAgency, RoleAdmin, RoleSystem},
		ApplicationStatusRejected:  {RoleAgency, RoleAdmin},
		ApplicationStatusCancelled: {RoleAgency, RoleAdmin, RoleSystem},
	},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to ApplicationStatus) bool {
	_, ok := transitionTable[from][to]
	return ok
}

// AllowedRoles returns the roles that may request from -> to.
// The boolean is false when the transition itself is illegal.
func AllowedRoles(from, to ApplicationStatus) ([]Role, bool) {
	roles, ok := transitionTable[from][to]
	return roles, ok
}

// RoleAllowed reports whether role may request from -> to.
func RoleAllowed(from, to ApplicationStatus, role Role) bool {
	roles, ok := AllowedRoles(from, to)
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Transitions returns a copy of every legal (from, to) pair.
func Transitions() map[ApplicationStatus][]ApplicationStatus {
	out := make(map[ApplicationStatus][]ApplicationStatus, len(transitionTable))
	for from, targets := range transitionTable {
		for to := range targets {
			out[from] = append(out[from], to)
		}
	}
	return out
}
