package gate

// Requirement is a pure predicate over an actor's role set.
type Requirement interface {
	// Satisfied reports whether the (non-nil) actor meets the requirement.
	Satisfied(a *Actor) bool
	// String names the requirement for error messages and logs.
	String() string
}

type roleRequirement struct{ role Role }

func (r roleRequirement) Satisfied(a *Actor) bool { return a.HasRole(r.role) }
func (r roleRequirement) String() string          { return "role:" + string(r.role) }

// RequireRole passes iff the actor's role set contains exactly the given tag.
func RequireRole(role Role) Requirement { return roleRequirement{role: role} }

type authenticatedRequirement struct{}

func (authenticatedRequirement) Satisfied(_ *Actor) bool { return true }
func (authenticatedRequirement) String() string          { return "authenticated" }

// RequireAuthenticated passes for any authenticated actor.
// Nil actors are rejected by the gate before the requirement is consulted.
func RequireAuthenticated() Requirement { return authenticatedRequirement{} }

// sTierRoles is the role set granting the Pro feature band. ADMIN always
// passes so back-office accounts can reach every screen.
var sTierRoles = []Role{RoleSPlan5, RoleSPlan10, RoleSPlan15, RoleSitePlan10, RoleAdmin}

type sTierRequirement struct{}

func (sTierRequirement) Satisfied(a *Actor) bool { return a.HasAnyRole(sTierRoles...) }
func (sTierRequirement) String() string          { return "s_tier" }

// RequireSTier passes iff the actor holds an S-tier plan role or ADMIN.
func RequireSTier() Requirement { return sTierRequirement{} }

type anyRequirement struct{ roles []Role }

func (r anyRequirement) Satisfied(a *Actor) bool { return a.HasAnyRole(r.roles...) }
func (r anyRequirement) String() string {
	s := "any_of:"
	for i, role := range r.roles {
		if i > 0 {
			s += ","
		}
		s += string(role)
	}
	return s
}

// RequireAnyRole passes iff the actor holds at least one of the given roles.
func RequireAnyRole(roles ...Role) Requirement { return anyRequirement{roles: roles} }
