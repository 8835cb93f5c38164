package handlers

import (
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/billing"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/plan"
	"github.com/downpricer/downpricer/internal/services"
)

type MinisiteHandler struct {
	Svc  *services.MinisiteService
	Subs *billing.SubscriptionStore
}

func NewMinisiteHandler(svc *services.MinisiteService, subs *billing.SubscriptionStore) *MinisiteHandler {
	return &MinisiteHandler{Svc: svc, Subs: subs}
}

// Mine: GET /minisites/my – 404 when none exists yet (normal case before
// creation; clients route to the create page on it).
func (h *MinisiteHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	m, err := h.Svc.Mine(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if m == nil {
		httpx.JSONError(w, http.StatusNotFound, "no_minisite", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, m)
}

// Create: POST /minisites – plan-gated provisioning. The plan hint comes
// from the body or the ?plan= query parameter (deep links).
func (h *MinisiteHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var in services.CreateMinisiteInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if in.PlanHint == "" {
		in.PlanHint = r.URL.Query().Get("plan")
	}
	m, err := h.Svc.Create(r.Context(), actor, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, m)
}

// Entry: GET /minisites/entry – which minisite route the client should
// land on.
func (h *MinisiteHandler) Entry(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	route, err := h.Svc.Entry(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"route": route})
}

// Plan: GET /minisites/plan – the actor's effective plan tier, resolved
// from hint, roles, and subscription.
func (h *MinisiteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	id, ok, err := plan.ResolveFor(r.Context(), h.Subs, actor, r.URL.Query().Get("plan"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		httpx.JSON(w, http.StatusOK, map[string]any{"plan_id": nil})
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"plan_id": id})
}
