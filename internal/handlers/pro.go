package handlers

import (
	"net/http"

	"github.com/downpricer/downpricer/internal/auth"
	"github.com/downpricer/downpricer/internal/httpx"
	"github.com/downpricer/downpricer/internal/services"
)

// ProHandler is the Pro buy/resell book surface. Every route is S-tier
// gated by the service.
type ProHandler struct {
	Svc *services.ProService
}

func NewProHandler(svc *services.ProService) *ProHandler {
	return &ProHandler{Svc: svc}
}

// CreateArticle: POST /pro/articles
func (h *ProHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var in services.ProArticleInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	article, err := h.Svc.Create(r.Context(), actor, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, article)
}

// ListArticles: GET /pro/articles – photos omitted, fetch them via Photo.
func (h *ProHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	articles, err := h.Svc.List(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, articles)
}

// GetArticle: GET /pro/articles/{id}
func (h *ProHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	article, err := h.Svc.ByPublicID(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

// Photo: GET /pro/articles/{id}/photo
func (h *ProHandler) Photo(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	photo, err := h.Svc.Photo(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"photo": photo})
}

// UpdateArticle: PUT /pro/articles/{id}
func (h *ProHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	var in services.ProArticleUpdate
	if err := httpx.Decode(r, &in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	article, err := h.Svc.Update(r.Context(), actor, r.PathValue("id"), in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, article)
}

// DeleteArticle: DELETE /pro/articles/{id}
func (h *ProHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	if err := h.Svc.Delete(r.Context(), actor, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "article supprimé"})
}

// Transactions: GET /pro/transactions
func (h *ProHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	txs, err := h.Svc.Transactions(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, txs)
}

// Alerts: GET /pro/dashboard/alerts – return deadlines coming due.
func (h *ProHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	articles, err := h.Svc.Alerts(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, articles)
}

// Stats: GET /pro/dashboard/stats
func (h *ProHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())
	stats, err := h.Svc.Stats(r.Context(), actor)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}
