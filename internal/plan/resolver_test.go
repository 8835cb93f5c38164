package plan

import (
	"testing"

	"github.com/downpricer/downpricer/internal/gate"
)

func TestResolvePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		actor  *gate.Actor
		sub    *Subscription
		hint   string
		want   ID
		wantOK bool
	}{
		{
			name:   "hint wins over everything",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleSitePlan2}},
			sub:    &Subscription{Active: true, SitePlan: "SITE_PLAN_3"},
			hint:   "SITE_PLAN_1",
			want:   Plan1,
			wantOK: true,
		},
		{
			name:   "non-canonical hint is ignored",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleSitePlan2}},
			hint:   "SITE_PLAN_9",
			want:   Plan2,
			wantOK: true,
		},
		{
			name:   "role beats subscription",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleSeller, gate.RoleSitePlan1}},
			sub:    &Subscription{Active: true, SitePlan: "SITE_PLAN_3"},
			want:   Plan1,
			wantOK: true,
		},
		{
			name:   "admin gets highest tier",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleAdmin}},
			want:   Plan3,
			wantOK: true,
		},
		{
			name:   "superadmin gets highest tier",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleSuperAdmin}},
			want:   Plan3,
			wantOK: true,
		},
		{
			name:   "plan role beats admin fallback",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleAdmin, gate.RoleSitePlan1}},
			want:   Plan1,
			wantOK: true,
		},
		{
			name:   "subscription canonical site plan",
			actor:  &gate.Actor{Roles: []gate.Role{gate.RoleClient}},
			sub:    &Subscription{Active: true, SitePlan: "SITE_PLAN_2"},
			want:   Plan2,
			wantOK: true,
		},
		{
			name:   "subscription legacy plan name",
			sub:    &Subscription{Active: true, Plan: "standard"},
			want:   Plan2,
			wantOK: true,
		},
		{
			name:   "subscription legacy plan key",
			sub:    &Subscription{Active: true, PlanKey: "premium"},
			want:   Plan3,
			wantOK: true,
		},
		{
			name:   "site plan field beats legacy name",
			sub:    &Subscription{Active: true, SitePlan: "SITE_PLAN_1", Plan: "premium"},
			want:   Plan1,
			wantOK: true,
		},
		{
			name: "inactive subscription contributes nothing",
			sub:  &Subscription{Active: false, SitePlan: "SITE_PLAN_3"},
		},
		{
			name: "unknown legacy name contributes nothing",
			sub:  &Subscription{Active: true, Plan: "gold"},
		},
		{
			name:  "no sources",
			actor: &gate.Actor{Roles: []gate.Role{gate.RoleClient}},
		},
		{name: "all nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.actor, tt.sub, tt.hint)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestResolveDoesNotMutateInputs(t *testing.T) {
	actor := &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleSitePlan2}}
	sub := &Subscription{Active: true, SitePlan: "SITE_PLAN_3", Plan: "starter"}
	Resolve(actor, sub, "SITE_PLAN_1")
	if len(actor.Roles) != 1 || actor.Roles[0] != gate.RoleSitePlan2 {
		t.Error("actor mutated")
	}
	if !sub.Active || sub.SitePlan != "SITE_PLAN_3" || sub.Plan != "starter" {
		t.Error("subscription mutated")
	}
}

func TestCanonical(t *testing.T) {
	for _, raw := range []string{"SITE_PLAN_1", "SITE_PLAN_2", "SITE_PLAN_3"} {
		if _, ok := Canonical(raw); !ok {
			t.Errorf("Canonical(%q) = false, want true", raw)
		}
	}
	for _, raw := range []string{"", "SITE_PLAN_4", "site_plan_1", "premium"} {
		if _, ok := Canonical(raw); ok {
			t.Errorf("Canonical(%q) = true, want false", raw)
		}
	}
}

func TestValidateHint(t *testing.T) {
	withPlan := &gate.Actor{Roles: []gate.Role{gate.RoleSitePlan2}}
	noPlan := &gate.Actor{Roles: []gate.Role{gate.RoleClient}}

	tests := []struct {
		name   string
		actor  *gate.Actor
		hint   string
		want   ID
		wantOK bool
	}{
		{"matching hint confirmed", withPlan, "SITE_PLAN_2", Plan2, true},
		{"mismatched hint corrected to role", withPlan, "SITE_PLAN_3", Plan2, true},
		{"empty hint falls back to role", withPlan, "", Plan2, true},
		{"hint without any role rejected", noPlan, "SITE_PLAN_3", "", false},
		{"nil actor", nil, "SITE_PLAN_1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ValidateHint(tt.actor, tt.hint)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ValidateHint() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
