package handlers

import (
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/billing"
	"github.com/downpricer/downpricer/internal/httpx"
)

type BillingHandler struct {
	Subs *billing.SubscriptionStore
}

func NewBillingHandler(subs *billing.SubscriptionStore) *BillingHandler {
	return &BillingHandler{Subs: subs}
}

// Subscription: GET /billing/subscription – the actor's stored billing
// record. Absent records read as "no subscription" rather than an error.
func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if actor == nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	rec, err := h.Subs.Record(r.Context(), actor.ID)
	if err != nil {
		httpx.JSONError(w, http.StatusServiceUnavailable, "upstream_unavailable", nil)
		return
	}
	if rec == nil {
		httpx.JSON(w, http.StatusOK, map[string]any{"has_subscription": false})
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}
