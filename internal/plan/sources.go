package plan

import (
	"context"
	"errors"
	"fmt"

	"github.com/downpricer/downpricer/internal/gate"
)

// ErrUpstreamUnavailable is the sentinel for collaborator fetch failures.
var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// UnavailableError wraps a failed collaborator fetch with its source name.
type UnavailableError struct {
	Source string
	Err    error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Source, e.Err)
}

func (e *UnavailableError) Unwrap() error        { return e.Err }
func (e *UnavailableError) Is(target error) bool { return target == ErrUpstreamUnavailable }

// SubscriptionSource supplies the stored billing record for a user.
type SubscriptionSource interface {
	Subscription(ctx context.Context, userID uint) (*Subscription, error)
}

// ActorSource supplies the role view of a user.
type ActorSource interface {
	ActorByID(ctx context.Context, userID uint) (*gate.Actor, error)
}

// ResolveUser resolves the plan for a user id when neither source is in
// hand yet. The actor and subscription reads are independent, so they are
// issued in parallel; a failure on one side still yields a best-effort
// answer from the other. The error is non-nil only when resolution came
// up empty and at least one fetch failed.
func ResolveUser(ctx context.Context, actors ActorSource, subs SubscriptionSource, userID uint, hint string) (ID, bool, error) {
	var (
		actor    *gate.Actor
		actorErr error
		sub      *Subscription
		subErr   error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if subs != nil {
			sub, subErr = subs.Subscription(ctx, userID)
		}
	}()
	if actors != nil {
		actor, actorErr = actors.ActorByID(ctx, userID)
	}
	<-done
	if actorErr != nil {
		actor = nil
	}
	if subErr != nil {
		sub = nil
	}

	if id, ok := Resolve(actor, sub, hint); ok {
		return id, true, nil
	}
	if actorErr != nil {
		return "", false, &UnavailableError{Source: "auth", Err: actorErr}
	}
	if subErr != nil {
		return "", false, &UnavailableError{Source: "billing", Err: subErr}
	}
	return "", false, nil
}

// ResolveFor fetches the actor's subscription and resolves the plan.
// The two remaining sources (actor, hint) are already in hand, so a
// billing outage degrades to resolving from those alone; the error is
// only returned when no source produced an answer, wrapped as
// UnavailableError so the caller can tell outage from plain "no plan".
func ResolveFor(ctx context.Context, src SubscriptionSource, actor *gate.Actor, hint string) (ID, bool, error) {
	var sub *Subscription
	var fetchErr error
	if src != nil && actor != nil {
		sub, fetchErr = src.Subscription(ctx, actor.ID)
		if fetchErr != nil {
			sub = nil
		}
	}
	id, ok := Resolve(actor, sub, hint)
	if ok {
		return id, true, nil
	}
	if fetchErr != nil {
		return "", false, &UnavailableError{Source: "billing", Err: fetchErr}
	}
	return "", false, nil
}
