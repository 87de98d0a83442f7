package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// Listing is the internal record for one externally-sold item. Identity is
// (user_id, marketplace, external_id) and is immutable once created.
//
// Mutable fields are partitioned by owner: title/price/status belong to the
// reconciler, current_stock_level/is_available belong to the inventory
// worker, minimum_resell_price belongs to the repricing engine. Writers go
// through the typed update structs in internal/listings so an owner cannot
// touch another owner's columns.
type Listing struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_listings_identity"`
	Marketplace enums.MarketplaceType `gorm:"column:marketplace;not null;uniqueIndex:ux_listings_identity"`
	ExternalID  string                `gorm:"column:external_id;not null;uniqueIndex:ux_listings_identity"`

	SKU    string              `gorm:"column:sku;not null;default:''"`
	Title  string              `gorm:"column:title;not null"`
	Price  decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Status enums.ListingStatus `gorm:"column:status;not null;default:'active'"`

	CurrentStockLevel int  `gorm:"column:current_stock_level;not null;default:0"`
	IsAvailable       bool `gorm:"column:is_available;not null;default:false"`

	MarketplaceFeePercentage *float64         `gorm:"column:marketplace_fee_percentage;type:numeric(5,4)"`
	MinimumResellPrice       *decimal.Decimal `gorm:"column:minimum_resell_price;type:numeric(12,2)"`

	SyncStatus   enums.ListingSyncStatus `gorm:"column:sync_status;not null;default:'synced'"`
	ProductID    *uuid.UUID              `gorm:"column:product_id;type:uuid"`
	LastSyncedAt *time.Time              `gorm:"column:last_synced_at"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
