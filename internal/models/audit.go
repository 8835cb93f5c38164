package models

import "time"

// Audit logging
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	UserID     uint      // qui a fait la modification
	EntityType string    // ex: "Demande", "Sale"
	EntityID   string    // public id de l'entité modifiée
	Action     string    // ex: "transition", "override", "cancel"
	Field      string    // champ modifié (optionnel)
	OldValue   string    // ancienne valeur (optionnel)
	NewValue   string    // nouvelle valeur (optionnel)
	CreatedAt  time.Time // quand
}

// Notification is an outbound message queued for a user. Delivery is
// fire-and-forget; a failed write never rolls back the transition that
// produced it.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Kind      string    `gorm:"size:64;not null" json:"kind"` // ex: demande.accepted, sale.shipped
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
