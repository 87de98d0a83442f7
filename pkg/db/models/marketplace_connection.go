package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
)

// MarketplaceConnection stores one user's credentials and sync settings for
// a single marketplace. The repricing settings here are the "settings" the
// repricing engine consumes.
type MarketplaceConnection struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID             `gorm:"column:user_id;type:uuid;not null;uniqueIndex:ux_marketplace_connections_key"`
	Marketplace enums.MarketplaceType `gorm:"column:marketplace;not null;uniqueIndex:ux_marketplace_connections_key"`

	AccessToken string  `gorm:"column:access_token;not null"`
	LocationID  *string `gorm:"column:location_id"`

	Enabled            bool                    `gorm:"column:enabled;not null;default:true"`
	AutoRepriceEnabled bool                    `gorm:"column:auto_reprice_enabled;not null;default:false"`
	ProfitPolicyType   *enums.ProfitPolicyType `gorm:"column:profit_policy_type"`
	ProfitPolicyValue  *decimal.Decimal        `gorm:"column:profit_policy_value;type:numeric(12,2)"`
	FeePercentage      *float64                `gorm:"column:fee_percentage;type:numeric(5,4)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
