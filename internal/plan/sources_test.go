package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/downpricer/downpricer/internal/gate"
)

type stubSubs struct {
	sub *Subscription
	err error
}

func (s stubSubs) Subscription(_ context.Context, _ uint) (*Subscription, error) {
	return s.sub, s.err
}

type stubActors struct {
	actor *gate.Actor
	err   error
}

func (s stubActors) ActorByID(_ context.Context, _ uint) (*gate.Actor, error) {
	return s.actor, s.err
}

func TestResolveFor(t *testing.T) {
	actor := &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleClient}}

	id, ok, err := ResolveFor(context.Background(), stubSubs{sub: &Subscription{Active: true, Plan: "starter"}}, actor, "")
	if err != nil || !ok || id != Plan1 {
		t.Fatalf("ResolveFor() = (%q, %v, %v), want (SITE_PLAN_1, true, nil)", id, ok, err)
	}
}

func TestResolveForBillingOutageDegrades(t *testing.T) {
	// The other sources still answer; the outage is invisible.
	actor := &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleSitePlan1}}
	down := stubSubs{err: errors.New("connection refused")}

	id, ok, err := ResolveFor(context.Background(), down, actor, "")
	if err != nil || !ok || id != Plan1 {
		t.Fatalf("ResolveFor() = (%q, %v, %v), want degraded success", id, ok, err)
	}
}

func TestResolveForBillingOutageNoFallback(t *testing.T) {
	actor := &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleClient}}
	down := stubSubs{err: errors.New("connection refused")}

	_, ok, err := ResolveFor(context.Background(), down, actor, "")
	if ok {
		t.Fatal("expected no resolution")
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.Source != "billing" {
		t.Fatalf("expected billing UnavailableError, got %v", err)
	}
}

func TestResolveForNoPlanNoError(t *testing.T) {
	// Plain "no plan" is a normal answer, not an error.
	actor := &gate.Actor{ID: 1, Roles: []gate.Role{gate.RoleClient}}
	_, ok, err := ResolveFor(context.Background(), stubSubs{sub: &Subscription{}}, actor, "")
	if ok || err != nil {
		t.Fatalf("ResolveFor() = (_, %v, %v), want (false, nil)", ok, err)
	}
}

func TestResolveUser(t *testing.T) {
	actors := stubActors{actor: &gate.Actor{ID: 4, Roles: []gate.Role{gate.RoleSitePlan3}}}
	subs := stubSubs{sub: &Subscription{}}

	id, ok, err := ResolveUser(context.Background(), actors, subs, 4, "")
	if err != nil || !ok || id != Plan3 {
		t.Fatalf("ResolveUser() = (%q, %v, %v), want (SITE_PLAN_3, true, nil)", id, ok, err)
	}
}

func TestResolveUserAuthOutageDegradesToSubscription(t *testing.T) {
	actors := stubActors{err: errors.New("auth timeout")}
	subs := stubSubs{sub: &Subscription{Active: true, PlanKey: "standard"}}

	id, ok, err := ResolveUser(context.Background(), actors, subs, 4, "")
	if err != nil || !ok || id != Plan2 {
		t.Fatalf("ResolveUser() = (%q, %v, %v), want degraded success", id, ok, err)
	}
}

func TestResolveUserBothDownEmptyResolution(t *testing.T) {
	actors := stubActors{err: errors.New("auth timeout")}
	subs := stubSubs{err: errors.New("billing timeout")}

	_, ok, err := ResolveUser(context.Background(), actors, subs, 4, "")
	if ok {
		t.Fatal("expected no resolution")
	}
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("err = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestResolveUserHintSurvivesTotalOutage(t *testing.T) {
	// A canonical hint resolves on its own; outages stay invisible.
	actors := stubActors{err: errors.New("auth timeout")}
	subs := stubSubs{err: errors.New("billing timeout")}

	id, ok, err := ResolveUser(context.Background(), actors, subs, 4, "SITE_PLAN_2")
	if err != nil || !ok || id != Plan2 {
		t.Fatalf("ResolveUser() = (%q, %v, %v), want (SITE_PLAN_2, true, nil)", id, ok, err)
	}
}
