// Package notify delivers user-facing event notifications. Delivery is
// fire-and-forget from the caller's point of view: a notifier error never
// rolls back the lifecycle transition that triggered it.
package notify

import (
	"context"
	"log"

	"github.com/downpricer/downpricer/internal/models"
	"gorm.io/gorm"
)

// Event names something that happened to a user's demande or sale.
type Event struct {
	UserID  uint
	Kind    string // ex: demande.accepted, sale.payment_confirmed
	Message string
}

// Notifier sends one event to one user.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier just logs events. Used in dev and as a test double.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, e Event) error {
	log.Printf("notify user=%d kind=%s: %s", e.UserID, e.Kind, e.Message)
	return nil
}

// StoreNotifier persists events as in-app notifications.
type StoreNotifier struct {
	DB *gorm.DB
}

func NewStoreNotifier(db *gorm.DB) *StoreNotifier { return &StoreNotifier{DB: db} }

func (n *StoreNotifier) Notify(ctx context.Context, e Event) error {
	return n.DB.WithContext(ctx).Create(&models.Notification{
		UserID:  e.UserID,
		Kind:    e.Kind,
		Message: e.Message,
	}).Error
}

// Quietly wraps Notify so callers can fire and forget: failures are
// logged and swallowed.
func Quietly(ctx context.Context, n Notifier, e Event) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, e); err != nil {
		log.Printf("notify user=%d kind=%s failed: %v", e.UserID, e.Kind, err)
	}
}
