package handlers

import (
	"context"
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/services"
)

type SaleHandler struct {
	Svc *services.SaleService
}

func NewSaleHandler(svc *services.SaleService) *SaleHandler { return &SaleHandler{Svc: svc} }

type declareSaleReq struct {
	ArticleID        string  `json:"article_id"`
	SalePrice        float64 `json:"sale_price"`
	ShippingLabelRef string  `json:"shipping_label_ref"`
}

// Declare: POST /seller/sales
func (h *SaleHandler) Declare(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req declareSaleReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := h.Svc.Declare(r.Context(), actor, req.ArticleID, req.SalePrice, req.ShippingLabelRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

// List: GET /seller/sales – the seller's own sales.
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	out, err := h.Svc.ForSeller(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Get: GET /seller/sales/{id} and GET /admin/sales/{id}
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	sale, err := h.Svc.ByPublicID(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

type submitPaymentReq struct {
	Method   string `json:"method"`
	ProofURL string `json:"proof_url"`
	Link     string `json:"link"`
	Note     string `json:"note"`
}

// SubmitPayment: POST /seller/sales/{id}/submit-payment
func (h *SaleHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req submitPaymentReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := h.Svc.SubmitPaymentProof(r.Context(), actor, r.PathValue("id"), req.Method, req.ProofURL, req.Link, req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

// AdminList: GET /admin/sales
func (h *SaleHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	out, err := h.Svc.All(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

// Validate: POST /admin/sales/{id}/validate
func (h *SaleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.Svc.Approve)
}

// ConfirmPayment: POST /admin/sales/{id}/confirm-payment
func (h *SaleHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.Svc.ConfirmPayment)
}

// Complete: POST /admin/sales/{id}/complete
func (h *SaleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.adminAction(w, r, h.Svc.Complete)
}

type reasonReq struct {
	Reason string `json:"reason"`
}

// Reject: POST /admin/sales/{id}/reject
func (h *SaleHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.reasonAction(w, r, h.Svc.Reject)
}

// RejectPayment: POST /admin/sales/{id}/reject-payment
func (h *SaleHandler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	h.reasonAction(w, r, h.Svc.RejectPayment)
}

type markShippedReq struct {
	TrackingNumber string `json:"tracking_number"`
}

// MarkShipped: POST /admin/sales/{id}/mark-shipped
func (h *SaleHandler) MarkShipped(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req markShippedReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := h.Svc.MarkShipped(r.Context(), actor, r.PathValue("id"), req.TrackingNumber)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) adminAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, actor *gate.Actor, publicID string) (*models.Sale, error)) {
	actor, _ := auth.ActorFromContext(r.Context())
	sale, err := action(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

func (h *SaleHandler) reasonAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, actor *gate.Actor, publicID, reason string) (*models.Sale, error)) {
	actor, _ := auth.ActorFromContext(r.Context())
	var req reasonReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	sale, err := action(r.Context(), actor, r.PathValue("id"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}
