// Package store persists demandes and sales. Status transitions are
// written as atomic compare-and-swap updates keyed on the status the
// caller read, so two concurrent transitions from the same pre-state
// cannot both succeed: the loser gets a StaleStateError instead of
// silently clobbering the winner.
package store

import (
	"context"
	"errors"

	"github.com/downpricer/downpricer/internal/models"
	"gorm.io/gorm"
)

type DemandeStore struct {
	DB *gorm.DB
}

func NewDemandeStore(db *gorm.DB) *DemandeStore { return &DemandeStore{DB: db} }

func (s *DemandeStore) Create(ctx context.Context, d *models.Demande) error {
	return s.DB.WithContext(ctx).Create(d).Error
}

func (s *DemandeStore) ByPublicID(ctx context.Context, publicID string) (*models.Demande, error) {
	var d models.Demande
	err := s.DB.WithContext(ctx).Where("public_id = ?", publicID).First(&d).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *DemandeStore) ByClient(ctx context.Context, clientID uint) ([]models.Demande, error) {
	var out []models.Demande
	err := s.DB.WithContext(ctx).Where("client_id = ?", clientID).Order("id desc").Find(&out).Error
	return out, err
}

func (s *DemandeStore) List(ctx context.Context) ([]models.Demande, error) {
	var out []models.Demande
	err := s.DB.WithContext(ctx).Order("id desc").Find(&out).Error
	return out, err
}

// ApplyTransition persists a transition already validated against
// fromStatus. The UPDATE is guarded on the pre-state; zero rows affected
// means another writer moved the demande first.
func (s *DemandeStore) ApplyTransition(ctx context.Context, d *models.Demande, fromStatus string, updates map[string]any) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Demande{}).
		Where("id = ? AND status = ?", d.ID, fromStatus).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &StaleStateError{Entity: "demande", PublicID: d.PublicID, Expected: fromStatus}
	}
	return nil
}

// ApplyDepositPaid persists the deposit transition and its payment row
// in one transaction: a failed payment insert rolls the status back, so
// the demande never reads DEPOSIT_PAID without a matching row.
func (s *DemandeStore) ApplyDepositPaid(ctx context.Context, d *models.Demande, fromStatus string, updates map[string]any, payment *models.DepositPayment) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Demande{}).
			Where("id = ? AND status = ?", d.ID, fromStatus).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &StaleStateError{Entity: "demande", PublicID: d.PublicID, Expected: fromStatus}
		}
		payment.DemandeID = d.ID
		return tx.Create(payment).Error
	})
}

// DepositPayments lists a demande's payment rows. Payment records are
// append-only audit material.
func (s *DemandeStore) DepositPayments(ctx context.Context, demandeID uint) ([]models.DepositPayment, error) {
	var out []models.DepositPayment
	err := s.DB.WithContext(ctx).Where("demande_id = ?", demandeID).Order("id asc").Find(&out).Error
	return out, err
}
