package services

import (
	"context"
	"errors"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/notify"
	"github.com/downpricer/downpricer/internal/store"
	"github.com/downpricer/downpricer/internal/validation"
	"gorm.io/gorm"
)

type SaleService struct {
	Store    *store.SaleStore
	Audit    *store.AuditStore
	Notifier notify.Notifier
}

func NewSaleService(st *store.SaleStore, audit *store.AuditStore, n notify.Notifier) *SaleService {
	return &SaleService{Store: st, Audit: audit, Notifier: n}
}

// Declare registers a resale transaction for a seller-owned article.
// One open sale per article: declaring against an article that already
// has a non-terminal sale is rejected.
func (s *SaleService) Declare(ctx context.Context, actor *gate.Actor, articlePublicID string, salePrice float64, shippingLabelRef string) (*models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleSeller)); err != nil {
		return nil, err
	}
	article, err := s.Store.ArticleByPublicID(ctx, articlePublicID)
	if err != nil {
		return nil, err
	}
	if article.SellerID != actor.ID {
		return nil, &gate.AuthorizationError{Requirement: "article_owner", Authenticated: true}
	}
	open, err := s.Store.HasOpenSale(ctx, article.ID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, &lifecycle.ValidationError{Violations: validation.Violations{"article_id": "already_on_sale"}}
	}
	sale, err := lifecycle.DeclareSale(article, salePrice, shippingLabelRef)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Create(ctx, sale); err != nil {
		// The partial unique index on open sales catches two declares
		// racing past the HasOpenSale check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &lifecycle.ValidationError{Violations: validation.Violations{"article_id": "already_on_sale"}}
		}
		return nil, err
	}
	sale.Article = *article
	s.Audit.RecordStatusChange(ctx, actor.ID, "Sale", sale.PublicID, "declare", "", sale.Status)
	return sale, nil
}

// ByPublicID fetches a sale readable by its seller or any admin.
func (s *SaleService) ByPublicID(ctx context.Context, actor *gate.Actor, publicID string) (*models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireAuthenticated()); err != nil {
		return nil, err
	}
	sale, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if sale.SellerID != actor.ID && !actor.IsAdmin() {
		return nil, &gate.AuthorizationError{Requirement: "owner_or_admin", Authenticated: true}
	}
	return sale, nil
}

// ForSeller lists the actor's own sales.
func (s *SaleService) ForSeller(ctx context.Context, actor *gate.Actor) ([]models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleSeller)); err != nil {
		return nil, err
	}
	return s.Store.BySeller(ctx, actor.ID)
}

// All lists every sale (back office).
func (s *SaleService) All(ctx context.Context, actor *gate.Actor) ([]models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	return s.Store.List(ctx)
}

// SubmitPaymentProof records the seller's payment evidence. The proof row
// and the status flip are committed atomically, guarded on PAYMENT_PENDING.
func (s *SaleService) SubmitPaymentProof(ctx context.Context, actor *gate.Actor, publicID, method, proofURL, link, note string) (*models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleSeller)); err != nil {
		return nil, err
	}
	sale, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if sale.SellerID != actor.ID {
		return nil, &gate.AuthorizationError{Requirement: "owner", Authenticated: true}
	}
	from := sale.Status
	if err := lifecycle.SubmitPaymentProof(sale, method, proofURL, link, note); err != nil {
		return nil, err
	}
	if err := s.Store.ApplyTransition(ctx, sale, from, map[string]any{"status": sale.Status}); err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Sale", sale.PublicID, "transition", from, sale.Status)
	return sale, nil
}

// adminTransition runs one guarded ADMIN transition end to end.
func (s *SaleService) adminTransition(ctx context.Context, actor *gate.Actor, publicID, eventKind, message string, mutate func(*models.Sale) error, columns func(*models.Sale) map[string]any) (*models.Sale, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	sale, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	from := sale.Status
	if err := mutate(sale); err != nil {
		return nil, err
	}
	updates := map[string]any{"status": sale.Status}
	if columns != nil {
		updates = columns(sale)
	}
	if err := s.Store.ApplyTransition(ctx, sale, from, updates); err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Sale", sale.PublicID, "transition", from, sale.Status)
	notify.Quietly(ctx, s.Notifier, notify.Event{UserID: sale.SellerID, Kind: eventKind, Message: message})
	return sale, nil
}

// Approve validates a freshly declared sale; the seller may now pay the
// platform for the article.
func (s *SaleService) Approve(ctx context.Context, actor *gate.Actor, publicID string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.approved", "Vente approuvée", lifecycle.ApproveSale, nil)
}

func (s *SaleService) ConfirmPayment(ctx context.Context, actor *gate.Actor, publicID string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.payment_confirmed", "Paiement confirmé", lifecycle.ConfirmPayment, nil)
}

func (s *SaleService) RejectPayment(ctx context.Context, actor *gate.Actor, publicID, reason string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.payment_rejected", "Paiement refusé : "+reason,
		func(sale *models.Sale) error { return lifecycle.RejectPayment(sale, reason) },
		func(sale *models.Sale) map[string]any {
			return map[string]any{"status": sale.Status, "reject_reason": sale.RejectReason}
		})
}

func (s *SaleService) Reject(ctx context.Context, actor *gate.Actor, publicID, reason string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.rejected", "Vente refusée : "+reason,
		func(sale *models.Sale) error { return lifecycle.RejectSale(sale, reason) },
		func(sale *models.Sale) map[string]any {
			return map[string]any{"status": sale.Status, "reject_reason": sale.RejectReason}
		})
}

func (s *SaleService) MarkShipped(ctx context.Context, actor *gate.Actor, publicID, trackingNumber string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.shipped", "Expédition confirmée",
		func(sale *models.Sale) error { return lifecycle.MarkShipped(sale, trackingNumber) },
		func(sale *models.Sale) map[string]any {
			return map[string]any{"status": sale.Status, "tracking_number": sale.TrackingNumber}
		})
}

func (s *SaleService) Complete(ctx context.Context, actor *gate.Actor, publicID string) (*models.Sale, error) {
	return s.adminTransition(ctx, actor, publicID, "sale.completed", "Transaction clôturée", lifecycle.CompleteSale, nil)
}
