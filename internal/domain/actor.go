// internal/domain/actor.go
package domain

// Role is the capacity in which an actor calls the workflow and quote operations.
type Role string

const (
	RoleOwner  Role = "owner"  // the user who owns the application or wallet
	RoleAgency Role = "agency" // a servicing party that reviews and quotes
	RoleAdmin  Role = "admin"  // back-office operator
	RoleSystem Role = "system" // internal callers such as booking flows and gateway callbacks
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAgency, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor identifies who is performing an operation. It is always passed explicitly;
// the core never reads identity from ambient request state.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// SystemActor is used for transitions the core performs on its own behalf,
// such as resolving an application after a quote is accepted.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

// Owns reports whether the actor is acting as the given owner.
func (a Actor) Owns(ownerID string) bool {
	return a.Role == RoleOwner && a.ID != "" && a.ID == ownerID
}

// IsStaff reports whether the actor acts for the back office.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAgency || a.Role == RoleAdmin
}
