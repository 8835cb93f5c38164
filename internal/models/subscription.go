package models

import "time"

// Subscription mirrors what the billing subsystem knows about a user's
// paid plan. Rows are written by checkout/renewal callbacks only; the
// application reads them and never edits plan fields directly.
//
// SitePlan holds the canonical plan identifier when the billing callback
// provided one. Plan/PlanKey carry the raw plan names from the billing
// provider and are not guaranteed to use the canonical vocabulary.
type Subscription struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Active           bool       `json:"has_subscription"`
	SitePlan         string     `gorm:"size:32" json:"site_plan,omitempty"`
	Plan             string     `gorm:"size:64" json:"plan,omitempty"`     // ex: starter, standard, premium
	PlanKey          string     `gorm:"size:64" json:"plan_key,omitempty"` // variante legacy du même champ
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
