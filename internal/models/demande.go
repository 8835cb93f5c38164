package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Demande is a client's sourcing order: find this product at or under
// this price. Created once by its client, then mutated only through
// administrative status transitions.
type Demande struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	ClientID uint   `gorm:"index;not null" json:"client_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`
	Photos      string `json:"photos,omitempty"` // URLs séparées par des virgules

	MaxPrice       float64 `gorm:"not null" json:"max_price"`
	ReferencePrice float64 `json:"reference_price"`
	// DepositAmount is fixed at creation and never exceeds MaxPrice.
	DepositAmount float64 `json:"deposit_amount"`

	PreferDelivery     bool `json:"prefer_delivery"`
	PreferHandDelivery bool `json:"prefer_hand_delivery"`

	Status       string `gorm:"index;not null" json:"status"`
	CancelReason string `json:"cancel_reason,omitempty"`

	// DepositPaymentURL is the hosted-processor link handed to the client
	// when an admin requests the deposit. Kept after cancellation: payment
	// records are audit material and are never erased.
	DepositPaymentURL string     `json:"deposit_payment_url,omitempty"`
	DepositPaidAt     *time.Time `json:"deposit_paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Demande) BeforeCreate(_ *gorm.DB) error {
	if d.PublicID == "" {
		d.PublicID = uuid.NewString()
	}
	return nil
}

// GetUserID returns the owning client's id (ownership checks).
func (d *Demande) GetUserID() uint { return d.ClientID }

// DepositPayment records a collected deposit. Rows are append-only.
type DepositPayment struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	PublicID  string    `gorm:"uniqueIndex;size:36;not null" json:"id"`
	DemandeID uint      `gorm:"index;not null" json:"-"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Type      string    `gorm:"size:32;not null" json:"type"` // ex: checkout, free_test
	CreatedAt time.Time `json:"created_at"`
}

func (p *DepositPayment) BeforeCreate(_ *gorm.DB) error {
	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}
	return nil
}
