// Package handlers exposes the HTTP surface: JSON in, JSON out.
// Rejected transitions surface the specific violated rule; the entity's
// stored state is untouched, so clients simply re-render what they had.
package handlers

import (
	"errors"
	"net/http"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/plan"
	"github.com/downpricer/downpricer/internal/store"
)

// writeDomainError maps domain error kinds onto HTTP statuses. The body
// always names the violated rule, never a generic failure.
func writeDomainError(w http.ResponseWriter, err error) {
	var ve *lifecycle.ValidationError
	if errors.As(err, &ve) {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", ve.Violations)
		return
	}
	var gv *lifecycle.GuardViolation
	if errors.As(err, &gv) {
		httpx.JSONError(w, http.StatusConflict, "guard_violation", map[string]string{
			"entity": gv.Entity, "action": gv.Action, "from": gv.From,
		})
		return
	}
	var ae *gate.AuthorizationError
	if errors.As(err, &ae) {
		status := http.StatusForbidden
		if !ae.Authenticated {
			status = http.StatusUnauthorized
		}
		httpx.JSONError(w, status, "forbidden", map[string]string{"requirement": ae.Requirement})
		return
	}
	var sse *store.StaleStateError
	if errors.As(err, &sse) {
		httpx.JSONError(w, http.StatusConflict, "stale_state", map[string]string{
			"entity": sse.Entity, "expected_status": sse.Expected,
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if errors.Is(err, plan.ErrUpstreamUnavailable) {
		httpx.JSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", nil)
		return
	}
	httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
}
