package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statuts du suivi achat/revente Pro. Labels français affichés tels quels.
const (
	ProStatusForSale  = "À vendre"
	ProStatusSold     = "Vendu"
	ProStatusToReturn = "À renvoyer"
	ProStatusLost     = "Perte"
)

// ProArticle is an item tracked in the Pro buy/resell book. Unlike
// platform Articles, Pro articles are personal inventory: bought outside
// the platform, resold wherever the user wants.
type ProArticle struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`

	Name             string     `gorm:"not null" json:"name"`
	Photo            string     `json:"photo,omitempty"` // image encodée base64
	Quantity         int        `gorm:"not null;default:1" json:"quantity"`
	PurchasePlatform string     `gorm:"not null" json:"purchase_platform"` // Vinted, eBay, LeBonCoin...
	PurchaseDate     time.Time  `gorm:"not null" json:"purchase_date"`
	ReturnDeadline   *time.Time `json:"return_deadline,omitempty"`
	PaymentMethod    string     `gorm:"not null" json:"payment_method"`

	PurchasePrice      float64  `gorm:"not null" json:"purchase_price"`
	EstimatedSalePrice float64  `gorm:"not null" json:"estimated_sale_price"`
	ActualSalePrice    *float64 `json:"actual_sale_price,omitempty"`
	SalePlatform       string   `json:"sale_platform,omitempty"`

	Status string `gorm:"index;not null;default:'À vendre'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ProArticle) BeforeCreate(_ *gorm.DB) error {
	if p.PublicID == "" {
		p.PublicID = uuid.NewString()
	}
	return nil
}

// GetUserID returns the owning user's id (ownership checks).
func (p *ProArticle) GetUserID() uint { return p.UserID }

// ProTransaction is one ledger line of the Pro book: a negative amount
// for a purchase, a positive amount for a sale.
type ProTransaction struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	UserID   uint   `gorm:"index;not null" json:"user_id"`

	Type        string  `gorm:"size:16;not null" json:"type"` // achat, vente
	Amount      float64 `gorm:"not null" json:"amount"`
	Description string  `json:"description"`
	ArticleID   string  `gorm:"size:36" json:"article_id,omitempty"`

	CreatedAt time.Time `json:"date"`
}

func (t *ProTransaction) BeforeCreate(_ *gorm.DB) error {
	if t.PublicID == "" {
		t.PublicID = uuid.NewString()
	}
	return nil
}
