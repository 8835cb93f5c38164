// Package services orchestrates guarded lifecycle transitions: gate
// check, pure state-machine step, atomic persistence, audit trail, then
// fire-and-forget notification. A failure at any step before persistence
// leaves the stored entity untouched.
package services

import (
	"context"
	"math"

	"github.com/downpricer/downpricer/internal/gate"
	"github.com/downpricer/downpricer/internal/lifecycle"
	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/notify"
	"github.com/downpricer/downpricer/internal/store"
	"github.com/downpricer/downpricer/internal/validation"
)

type DemandeService struct {
	Store    *store.DemandeStore
	Audit    *store.AuditStore
	Notifier notify.Notifier

	// DepositPercent of the max price is collected upfront. FreeTest
	// forces a zero deposit (test environments only).
	DepositPercent float64
	FreeTest       bool
}

func NewDemandeService(st *store.DemandeStore, audit *store.AuditStore, n notify.Notifier, depositPercent float64, freeTest bool) *DemandeService {
	return &DemandeService{Store: st, Audit: audit, Notifier: n, DepositPercent: depositPercent, FreeTest: freeTest}
}

type CreateDemandeInput struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Photos             string  `json:"photos"`
	MaxPrice           float64 `json:"max_price"`
	ReferencePrice     float64 `json:"reference_price"`
	PreferDelivery     bool    `json:"prefer_delivery"`
	PreferHandDelivery bool    `json:"prefer_hand_delivery"`
}

// Create registers a new sourcing demande for the acting client. The
// deposit amount is fixed here and never exceeds the max price.
func (s *DemandeService) Create(ctx context.Context, actor *gate.Actor, in CreateDemandeInput) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleClient)); err != nil {
		return nil, err
	}
	v := validation.Violations{}
	validation.Required("name", in.Name, v)
	validation.PositiveFloat("max_price", in.MaxPrice, v)
	validation.NonNegativeFloat("reference_price", in.ReferencePrice, v)
	if !v.Empty() {
		return nil, &lifecycle.ValidationError{Violations: v}
	}

	deposit := round2(in.MaxPrice * s.DepositPercent)
	if deposit > in.MaxPrice {
		deposit = in.MaxPrice
	}
	if s.FreeTest {
		deposit = 0
	}

	d := &models.Demande{
		ClientID:           actor.ID,
		Name:               in.Name,
		Description:        in.Description,
		Photos:             in.Photos,
		MaxPrice:           in.MaxPrice,
		ReferencePrice:     in.ReferencePrice,
		DepositAmount:      deposit,
		PreferDelivery:     in.PreferDelivery,
		PreferHandDelivery: in.PreferHandDelivery,
		Status:             lifecycle.DemandeAwaitingDeposit,
	}
	if err := s.Store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// ByPublicID fetches a demande readable by the actor: its owning client,
// or any admin.
func (s *DemandeService) ByPublicID(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireAuthenticated()); err != nil {
		return nil, err
	}
	d, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if d.ClientID != actor.ID && !actor.IsAdmin() {
		return nil, &gate.AuthorizationError{Requirement: "owner_or_admin", Authenticated: true}
	}
	return d, nil
}

// ForClient lists the actor's own demandes.
func (s *DemandeService) ForClient(ctx context.Context, actor *gate.Actor) ([]models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleClient)); err != nil {
		return nil, err
	}
	return s.Store.ByClient(ctx, actor.ID)
}

// All lists every demande (back office).
func (s *DemandeService) All(ctx context.Context, actor *gate.Actor) ([]models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	return s.Store.List(ctx)
}

// PayDeposit collects the deposit from the owning client. Only the
// FREE_TEST flow pays in-app; real deposits arrive through the hosted
// processor link attached by RequestDeposit.
func (s *DemandeService) PayDeposit(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireRole(gate.RoleClient)); err != nil {
		return nil, err
	}
	d, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	if d.ClientID != actor.ID {
		return nil, &gate.AuthorizationError{Requirement: "owner", Authenticated: true}
	}
	from := d.Status
	if err := lifecycle.MarkDepositPaid(d); err != nil {
		return nil, err
	}
	payType := "checkout"
	if s.FreeTest {
		payType = "free_test"
	}
	err = s.Store.ApplyDepositPaid(ctx, d, from, map[string]any{
		"status":          d.Status,
		"deposit_paid_at": d.DepositPaidAt,
	}, &models.DepositPayment{Amount: d.DepositAmount, Type: payType})
	if err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Demande", d.PublicID, "transition", from, d.Status)
	notify.Quietly(ctx, s.Notifier, notify.Event{UserID: d.ClientID, Kind: "demande.deposit_paid", Message: "Acompte reçu pour " + d.Name})
	return d, nil
}

// PayDepositAsAdmin records a deposit the back office confirmed out of
// band (bank transfer, processor dashboard). Same guarded transition as
// the client path, plus the append-only payment row.
func (s *DemandeService) PayDepositAsAdmin(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	d, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	from := d.Status
	if err := lifecycle.MarkDepositPaid(d); err != nil {
		return nil, err
	}
	err = s.Store.ApplyDepositPaid(ctx, d, from, map[string]any{
		"status":          d.Status,
		"deposit_paid_at": d.DepositPaidAt,
	}, &models.DepositPayment{Amount: d.DepositAmount, Type: "manual"})
	if err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Demande", d.PublicID, "transition", from, d.Status)
	notify.Quietly(ctx, s.Notifier, notify.Event{UserID: d.ClientID, Kind: "demande.deposit_paid", Message: "Acompte reçu : " + d.Name})
	return d, nil
}

// adminTransition runs one guarded ADMIN transition end to end.
// columns defaults to just the status column.
func (s *DemandeService) adminTransition(ctx context.Context, actor *gate.Actor, publicID, eventKind, message string, mutate func(*models.Demande) error, columns func(*models.Demande) map[string]any) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	d, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	from := d.Status
	if err := mutate(d); err != nil {
		return nil, err
	}
	updates := map[string]any{"status": d.Status}
	if columns != nil {
		updates = columns(d)
	}
	if err := s.Store.ApplyTransition(ctx, d, from, updates); err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Demande", d.PublicID, "transition", from, d.Status)
	notify.Quietly(ctx, s.Notifier, notify.Event{UserID: d.ClientID, Kind: eventKind, Message: message + " : " + d.Name})
	return d, nil
}

// RequestDeposit attaches the payment link and asks the client to pay.
func (s *DemandeService) RequestDeposit(ctx context.Context, actor *gate.Actor, publicID, paymentURL string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.deposit_requested", "Acompte demandé",
		func(d *models.Demande) error { return lifecycle.RequestDeposit(d, paymentURL) },
		func(d *models.Demande) map[string]any {
			return map[string]any{"status": d.Status, "deposit_payment_url": d.DepositPaymentURL}
		})
}

func (s *DemandeService) Accept(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.accepted", "Demande acceptée", lifecycle.AcceptDemande, nil)
}

func (s *DemandeService) BeginAnalysis(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.in_analysis", "Analyse démarrée", lifecycle.BeginAnalysis, nil)
}

func (s *DemandeService) MarkProposalFound(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.proposal_found", "Proposition trouvée", lifecycle.MarkProposalFound, nil)
}

func (s *DemandeService) Complete(ctx context.Context, actor *gate.Actor, publicID string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.completed", "Demande finalisée", lifecycle.CompleteDemande, nil)
}

// Cancel closes the demande from any non-terminal state. Deposit-payment
// columns are deliberately absent from the update: cancellation preserves
// payment records.
func (s *DemandeService) Cancel(ctx context.Context, actor *gate.Actor, publicID, reason string) (*models.Demande, error) {
	return s.adminTransition(ctx, actor, publicID, "demande.cancelled", "Demande annulée",
		func(d *models.Demande) error { return lifecycle.CancelDemande(d, reason) },
		func(d *models.Demande) map[string]any {
			return map[string]any{"status": d.Status, "cancel_reason": d.CancelReason}
		})
}

// OverrideStatus is the manual correction path: no edge validation, but
// the change is always written to the audit log.
func (s *DemandeService) OverrideStatus(ctx context.Context, actor *gate.Actor, publicID, status string) (*models.Demande, error) {
	if err := gate.Authorize(actor, gate.RequireAnyRole(gate.RoleAdmin, gate.RoleSuperAdmin)); err != nil {
		return nil, err
	}
	d, err := s.Store.ByPublicID(ctx, publicID)
	if err != nil {
		return nil, err
	}
	from := d.Status
	if err := lifecycle.OverrideDemandeStatus(d, status); err != nil {
		return nil, err
	}
	if err := s.Store.ApplyTransition(ctx, d, from, map[string]any{"status": d.Status}); err != nil {
		return nil, err
	}
	s.Audit.RecordStatusChange(ctx, actor.ID, "Demande", d.PublicID, "override", from, d.Status)
	notify.Quietly(ctx, s.Notifier, notify.Event{UserID: d.ClientID, Kind: "demande.status_changed", Message: "Statut mis à jour : " + d.Name})
	return d, nil
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
