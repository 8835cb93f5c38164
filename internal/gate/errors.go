package gate

import "errors"

// ErrUnauthorized is the sentinel all authorization failures match via
// errors.Is, regardless of the specific unmet requirement.
var ErrUnauthorized = errors.New("unauthorized")

// AuthorizationError reports an actor lacking the role or predicate
// required for an action. Authenticated distinguishes "logged in but
// forbidden" from "not logged in" so the HTTP layer can map 403 vs 401.
type AuthorizationError struct {
	Requirement   string
	Authenticated bool
}

func (e *AuthorizationError) Error() string {
	if !e.Authenticated {
		return "unauthorized: not authenticated (requires " + e.Requirement + ")"
	}
	return "unauthorized: missing " + e.Requirement
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }
