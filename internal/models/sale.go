package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article is a platform listing a seller may resell. Price is the
// platform-determined seller cost; ReferencePrice the market price shown
// to buyers.
type Article struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	SellerID uint   `gorm:"index;not null" json:"seller_id"`

	Name           string  `gorm:"not null" json:"name"`
	Description    string  `json:"description,omitempty"`
	Photos         string  `json:"photos,omitempty"`
	Price          float64 `gorm:"not null" json:"price"` // coût vendeur
	ReferencePrice float64 `json:"reference_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Article) BeforeCreate(_ *gorm.DB) error {
	if a.PublicID == "" {
		a.PublicID = uuid.NewString()
	}
	return nil
}

// GetUserID returns the owning seller's id (ownership checks).
func (a *Article) GetUserID() uint { return a.SellerID }

// Sale is a seller's declared resale transaction for an article.
// Payment-proof and tracking fields are appended as the sale advances;
// they are never deleted.
type Sale struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	SellerID uint   `gorm:"index;not null" json:"seller_id"`
	// The partial unique index enforces one open sale per article even
	// when two declares race past the service-level check.
	ArticleID uint    `gorm:"not null;index:idx_sales_open_article,unique,where:status <> 'COMPLETED' AND status <> 'REJECTED' AND status <> 'CANCELLED'" json:"-"`
	Article   Article `gorm:"foreignKey:ArticleID" json:"article"`

	SalePrice  float64 `gorm:"not null" json:"sale_price"`
	SellerCost float64 `gorm:"not null" json:"seller_cost"`
	// Profit is always SalePrice - SellerCost. Derived at declaration,
	// never edited independently.
	Profit float64 `gorm:"not null" json:"profit"`

	// ShippingLabelRef proves shipping readiness and is mandatory at
	// declaration time.
	ShippingLabelRef string `gorm:"not null" json:"shipping_label_ref"`

	Status         string        `gorm:"index;not null" json:"status"`
	PaymentProof   *PaymentProof `gorm:"foreignKey:SaleID" json:"payment_proof,omitempty"`
	TrackingNumber string        `json:"tracking_number,omitempty"`
	RejectReason   string        `json:"reject_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Sale) BeforeCreate(_ *gorm.DB) error {
	if s.PublicID == "" {
		s.PublicID = uuid.NewString()
	}
	return nil
}

// GetUserID returns the owning seller's id (ownership checks).
func (s *Sale) GetUserID() uint { return s.SellerID }

// PaymentProof is the seller's evidence that the buyer paid.
// One row per sale, created when the proof is submitted.
type PaymentProof struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	SaleID   uint   `gorm:"uniqueIndex;not null" json:"-"`
	Method   string `gorm:"size:16;not null" json:"method"` // paypal, vinted, autre
	ProofURL string `json:"proof_url,omitempty"`            // capture d'écran
	Link     string `json:"link,omitempty"`                 // lien transaction (vinted)
	Note     string `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
