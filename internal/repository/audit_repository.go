package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/tender-award/internal/model"
)

// AuditRepository is a write-only sink for audit_logs.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Record(ctx context.Context, entry model.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return err
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO audit_logs (tenant_id, user_id, entity_type, entity_id, action, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?::jsonb, ?)
	`, entry.TenantID, entry.UserID, entry.EntityType, entry.EntityID, entry.Action, string(payload), entry.CreatedAt).Error
}
