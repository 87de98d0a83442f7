package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// SyncStatusRecord tracks the reconciliation state machine for one
// (user, marketplace) pair. Created on the first sync attempt, updated at
// every phase transition, never deleted.
type SyncStatusRecord struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_sync_statuses_key"`
	Marketplace enums.MarketplaceType `gorm:"column:marketplace;not null;uniqueIndex:ux_sync_statuses_key"`

	Status        enums.SyncRunStatus `gorm:"column:status;not null;default:'idle'"`
	LastFullSync  *time.Time          `gorm:"column:last_full_sync"`
	TotalListings int                 `gorm:"column:total_listings;not null;default:0"`
	ErrorMessage  *string             `gorm:"column:error_message"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
