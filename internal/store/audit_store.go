package store

import (
	"context"
	"log"

	"github.com/downpricer/downpricer/internal/models"
	"gorm.io/gorm"
)

type AuditStore struct {
	DB *gorm.DB
}

func NewAuditStore(db *gorm.DB) *AuditStore { return &AuditStore{DB: db} }

// RecordStatusChange appends an audit row for a lifecycle transition or a
// manual override. Audit is best-effort: a failed write is logged, never
// bubbled up to fail the transition that already happened.
func (s *AuditStore) RecordStatusChange(ctx context.Context, actorID uint, entityType, entityID, action, oldStatus, newStatus string) {
	entry := models.AuditLog{
		UserID:     actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Field:      "status",
		OldValue:   oldStatus,
		NewValue:   newStatus,
	}
	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("audit: record %s %s %s: %v", entityType, entityID, action, err)
	}
}

func (s *AuditStore) ByEntity(ctx context.Context, entityType, entityID string) ([]models.AuditLog, error) {
	var out []models.AuditLog
	err := s.DB.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id asc").Find(&out).Error
	return out, err
}
