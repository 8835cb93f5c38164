// Package billing exposes the read side of the billing subsystem. The
// core never computes prices or talks to a card processor: checkout
// happens on the hosted processor's side and subscription rows are
// written by its callbacks.
package billing

import (
	"context"
	"errors"

	"github.com/downpricer/downpricer/internal/models"
	"github.com/downpricer/downpricer/internal/plan"
	"gorm.io/gorm"
)

// SubscriptionStore reads stored subscription records. Implements
// plan.SubscriptionSource.
type SubscriptionStore struct {
	DB *gorm.DB
}

func NewSubscriptionStore(db *gorm.DB) *SubscriptionStore { return &SubscriptionStore{DB: db} }

// Subscription returns the user's billing view, or an inactive zero view
// when no record exists (never having subscribed is not an error).
func (s *SubscriptionStore) Subscription(ctx context.Context, userID uint) (*plan.Subscription, error) {
	var rec models.Subscription
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &plan.Subscription{}, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan.Subscription{
		Active:   rec.Active,
		SitePlan: rec.SitePlan,
		Plan:     rec.Plan,
		PlanKey:  rec.PlanKey,
	}, nil
}

// Record returns the raw stored row for display.
func (s *SubscriptionStore) Record(ctx context.Context, userID uint) (*models.Subscription, error) {
	var rec models.Subscription
	err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CheckoutClient starts a hosted checkout session for a plan. The
// returned URL is handed to the client; everything after that happens on
// the processor's side.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, userID uint, planID plan.ID) (url string, err error)
}
