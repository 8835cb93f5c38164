package handlers

import (
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/services"
)

type DemandeHandler struct {
	Svc *services.DemandeService
}

func NewDemandeHandler(svc *services.DemandeService) *DemandeHandler {
	return &DemandeHandler{Svc: svc}
}

// Create: POST /demandes
func (h *DemandeHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var in services.CreateDemandeInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Svc.Create(r.Context(), actor, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, d)
}

// List: GET /demandes – the client's own demandes.
func (h *DemandeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	out, err := h.Svc.ForClient(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get: GET /demandes/{id}
func (h *DemandeHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	d, err := h.Svc.ByPublicID(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

// PayDeposit: POST /demandes/{id}/pay-deposit (FREE_TEST flow)
func (h *DemandeHandler) PayDeposit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	d, err := h.Svc.PayDeposit(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message": "Acompte enregistré",
		"demande": d,
	})
}

// AdminList: GET /admin/demandes
func (h *DemandeHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	out, err := h.Svc.All(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

type statusReq struct {
	Status string `json:"status"`
	// Force selects the manual correction path, bypassing edge
	// validation (always audited).
	Force bool `json:"force"`
}

// UpdateStatus: PUT /admin/demandes/{id}/status
// Maps the target status onto the corresponding guarded transition;
// with force=true it becomes a direct override.
func (h *DemandeHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req statusReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	id := r.PathValue("id")
	ctx := r.Context()

	if req.Force {
		d, err := h.Svc.OverrideStatus(ctx, actor, id, req.Status)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, d)
		return
	}

	var (
		d   any
		err error
	)
	switch req.Status {
	case "DEPOSIT_PAID":
		d, err = h.Svc.PayDepositAsAdmin(ctx, actor, id)
	case "ACCEPTED":
		d, err = h.Svc.Accept(ctx, actor, id)
	case "IN_ANALYSIS", "ANALYSIS", "ANALYSIS_AFTER_DEPOSIT":
		d, err = h.Svc.BeginAnalysis(ctx, actor, id)
	case "PROPOSAL_FOUND":
		d, err = h.Svc.MarkProposalFound(ctx, actor, id)
	case "COMPLETED":
		d, err = h.Svc.Complete(ctx, actor, id)
	case "AWAITING_BALANCE":
		// No guarded transition lands here, but the admin flow sets it
		// routinely once a proposal is accepted. Route it through the
		// audited override instead of requiring the force flag.
		d, err = h.Svc.OverrideStatus(ctx, actor, id, req.Status)
	default:
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", map[string]string{"status": "no_guarded_transition"})
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

// Cancel: PATCH /admin/demandes/{id}/cancel
func (h *DemandeHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req cancelReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Svc.Cancel(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

type requestDepositReq struct {
	DepositPaymentURL string `json:"deposit_payment_url"`
}

// RequestDeposit: PATCH /admin/demandes/{id}/request-deposit
func (h *DemandeHandler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req requestDepositReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	d, err := h.Svc.RequestDeposit(r.Context(), actor, r.PathValue("id"), req.DepositPaymentURL)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}
