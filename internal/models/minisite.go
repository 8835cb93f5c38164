package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Minisite is a subscription-gated personal storefront. One per user;
// PlanID records the tier resolved at creation/upgrade time.
type Minisite struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PublicID string `gorm:"uniqueIndex;size:36;not null" json:"id"`
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`

	Slug   string `gorm:"uniqueIndex;size:64;not null" json:"slug"`
	Name   string `gorm:"not null" json:"name"`
	PlanID string `gorm:"size:32;not null" json:"plan_id"` // SITE_PLAN_1/2/3

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *Minisite) BeforeCreate(_ *gorm.DB) error {
	if m.PublicID == "" {
		m.PublicID = uuid.NewString()
	}
	return nil
}

// GetUserID returns the owning user's id (ownership checks).
func (m *Minisite) GetUserID() uint { return m.UserID }
