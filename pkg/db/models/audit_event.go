package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// AuditEvent is one row in the append-only audit log. Rows are written
// best-effort and never updated or deleted.
type AuditEvent struct {
	ID        uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index"`
	EventType enums.AuditEventType `gorm:"column:event_type;not null;index"`
	EventData json.RawMessage      `gorm:"column:event_data;type:jsonb"`
	ListingID *uuid.UUID           `gorm:"column:listing_id;type:uuid"`
	ProductID *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	CreatedAt time.Time            `gorm:"column:created_at;autoCreateTime"`
}
