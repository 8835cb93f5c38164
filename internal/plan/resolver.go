// Package plan resolves a user's effective minisite plan tier from three
// independently-written sources: an explicit hint (navigation parameter),
// the user's granted roles, and the stored billing subscription. The
// three write paths can transiently disagree; Resolve produces one
// unambiguous answer without requiring them to be synchronized.
package plan

import "github.com/downpricer/downpricer/internal/gate"

// ID is a canonical plan identifier.
type ID string

const (
	Plan1 ID = "SITE_PLAN_1"
	Plan2 ID = "SITE_PLAN_2"
	Plan3 ID = "SITE_PLAN_3"
)

// legacyPlans maps the billing provider's raw plan names onto canonical
// identifiers. Subscriptions created before the vocabulary change still
// carry these.
var legacyPlans = map[string]ID{
	"starter":  Plan1,
	"standard": Plan2,
	"premium":  Plan3,
}

// planRoles in tier order; also the lookup used to recognize a canonical
// identifier wherever one may appear (hint, role tag, subscription field).
var planRoles = []gate.Role{gate.RoleSitePlan1, gate.RoleSitePlan2, gate.RoleSitePlan3}

// Canonical reports whether raw is one of the three canonical plan ids.
func Canonical(raw string) (ID, bool) {
	for _, r := range planRoles {
		if raw == string(r) {
			return ID(raw), true
		}
	}
	return "", false
}

// Subscription is the read-only billing view the resolver consumes.
// Plan and PlanKey hold raw provider plan names; SitePlan a canonical id
// when the billing callback normalized one.
type Subscription struct {
	Active   bool
	SitePlan string
	Plan     string
	PlanKey  string
}

// Resolve reconciles the three sources into one plan id. Precedence is
// evaluated top to bottom, first match wins:
//
//  1. a canonical explicit hint
//  2. a plan role on the actor (first in role-set order)
//  3. ADMIN/SUPERADMIN, which get the highest tier
//  4. an active subscription: its canonical plan, else its legacy name
//  5. nothing (ok=false)
//
// Resolve is a pure function of its inputs; callers must not cache the
// result beyond one resolution since any source can change between calls.
func Resolve(actor *gate.Actor, sub *Subscription, hint string) (ID, bool) {
	if id, ok := Canonical(hint); ok {
		return id, true
	}
	if actor != nil {
		for _, r := range actor.Roles {
			if id, ok := Canonical(string(r)); ok {
				return id, true
			}
		}
		if actor.IsAdmin() {
			return Plan3, true
		}
	}
	if sub != nil && sub.Active {
		if id, ok := Canonical(sub.SitePlan); ok {
			return id, true
		}
		if id, ok := legacyPlans[sub.Plan]; ok {
			return id, true
		}
		if id, ok := legacyPlans[sub.PlanKey]; ok {
			return id, true
		}
	}
	return "", false
}

// ActorPlanRole returns the actor's plan role, if any. ADMIN does not
// count as a plan here.
func ActorPlanRole(actor *gate.Actor) (ID, bool) {
	if actor == nil {
		return "", false
	}
	for _, r := range actor.Roles {
		if id, ok := Canonical(string(r)); ok {
			return id, true
		}
	}
	return "", false
}

// ValidateHint reconciles an explicit hint against the actor's plan role,
// trusting the role. When they disagree (stale deep link, forged
// parameter) the actor's real plan is returned instead of the hint.
// Callers wanting the permissive spec behavior use Resolve directly.
func ValidateHint(actor *gate.Actor, hint string) (ID, bool) {
	rolePlan, hasRole := ActorPlanRole(actor)
	if hint == "" {
		return rolePlan, hasRole
	}
	if hintID, ok := Canonical(hint); ok && hasRole && hintID == rolePlan {
		return hintID, true
	}
	return rolePlan, hasRole
}
