// Package gate is the central authorization checkpoint. Each guarded
// operation declares a Requirement; the gate evaluates it against the
// acting user's role set. Requirements are pure predicates with no side
// effects, so checks are safe to repeat and to run concurrently.
//
// Role checks used to be scattered across call sites; route every check
// through this package instead.
package gate

// Role is a tag from the closed role vocabulary. Roles are granted by
// administrative action and are the durable source of entitlement.
type Role string

const (
	RoleClient     Role = "CLIENT"
	RoleSeller     Role = "SELLER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"

	// Minisite plan tiers.
	RoleSitePlan1 Role = "SITE_PLAN_1"
	RoleSitePlan2 Role = "SITE_PLAN_2"
	RoleSitePlan3 Role = "SITE_PLAN_3"

	// S-tier roles grant access to the Pro feature set. S_PLAN_10 and
	// SITE_PLAN_10 are older grants still present on some accounts.
	RoleSPlan5     Role = "S_PLAN_5"
	RoleSPlan10    Role = "S_PLAN_10"
	RoleSPlan15    Role = "S_PLAN_15"
	RoleSitePlan10 Role = "SITE_PLAN_10"
)

// Actor is the read-only identity view consumed by authorization checks.
// A nil *Actor means "unauthenticated" and fails every requirement.
type Actor struct {
	ID    uint
	Roles []Role
}

// HasRole reports whether the actor's role set contains exactly r.
func (a *Actor) HasRole(r Role) bool {
	if a == nil {
		return false
	}
	for _, have := range a.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the actor holds at least one of the given roles.
func (a *Actor) HasAnyRole(roles ...Role) bool {
	for _, r := range roles {
		if a.HasRole(r) {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the actor holds an administrative role.
func (a *Actor) IsAdmin() bool {
	return a.HasAnyRole(RoleAdmin, RoleSuperAdmin)
}

// CanAccess evaluates a requirement against the actor.
// Unauthenticated actors (nil) fail every requirement.
func CanAccess(a *Actor, req Requirement) bool {
	if a == nil {
		return false
	}
	return req.Satisfied(a)
}

// Authorize is like CanAccess but returns a typed error describing the
// unmet requirement, suitable for surfacing to the caller.
func Authorize(a *Actor, req Requirement) error {
	if CanAccess(a, req) {
		return nil
	}
	return &AuthorizationError{Requirement: req.String(), Authenticated: a != nil}
}
